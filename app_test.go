package lottietex

import (
	"context"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockResource1 struct {
	name string
}
type MockResource2 struct {
	name string
}

func NewMockResource1(name string) *MockResource1 {
	return &MockResource1{name: name}
}
func NewMockResource2(name string) *MockResource2 {
	return &MockResource2{name: name}
}

func TestApp_addResources(t *testing.T) {
	app := NewApp()

	resource1 := NewMockResource1("Resource1")
	app.addResources(resource1)
	assert.Contains(t, app.resources, reflect.TypeOf(resource1).Elem(), "Resource1 should be in resources map.")

	require.PanicsWithValue(t, fmt.Sprintf("%s is already in resources", reflect.TypeOf(resource1)), func() {
		app.addResources(resource1)
	})

	resource2 := NewMockResource2("Resource2")
	app.addResources(resource2)
	assert.Contains(t, app.resources, reflect.TypeOf(resource2).Elem(), "Resource2 should be in resources map.")

	require.Panics(t, func() {
		app.addResources(MockResource1{})
	})
}

func TestApp_Resource(t *testing.T) {
	app := NewApp()
	app.addResources(NewMockResource1("one"))

	res, ok := Resource[MockResource1](app)
	require.True(t, ok)
	assert.Equal(t, "one", res.name)

	_, ok = Resource[MockResource2](app)
	assert.False(t, ok)
}

func TestApp_SystemInjection(t *testing.T) {
	app := NewApp()
	app.addResources(NewMockResource1("injected"))

	var got string
	var gotCmd bool
	app.UseSystem(System(func(r *MockResource1, cmd *Commands) {
		got = r.name
		gotCmd = cmd != nil
	}))
	app.Step()

	assert.Equal(t, "injected", got)
	assert.True(t, gotCmd)
	assert.Equal(t, uint64(1), app.Ticks())
}

func TestApp_UnresolvedDependencyPanics(t *testing.T) {
	app := NewApp()
	app.UseSystem(System(func(r *MockResource2) {}))
	assert.Panics(t, app.Step)
}

func TestApp_StageOrder(t *testing.T) {
	app := NewApp()
	var order []string
	record := func(name string) func() {
		return func() { order = append(order, name) }
	}

	app.UseStage(Stage{Name: "Upload"}, AfterStage(PreRender))
	app.UseSystem(System(record("render")).InStage(Render))
	app.UseSystem(System(record("upload")).InStage(Stage{Name: "Upload"}))
	app.UseSystem(System(record("prelude")).InStage(Prelude))
	app.UseSystem(System(record("update")))
	app.Step()

	assert.Equal(t, []string{"prelude", "update", "upload", "render"}, order)

	assert.Panics(t, func() { app.UseStage(Stage{Name: "Upload"}, BeforeStage(Render)) })
	assert.Panics(t, func() { app.UseStage(Stage{Name: "Other"}, BeforeStage(Stage{Name: "Missing"})) })
	assert.Panics(t, func() { app.UseSystem(System(record("x")).InStage(Stage{Name: "Missing"})) })
}

func TestApp_RunUntilExit(t *testing.T) {
	app := NewApp()
	app.UseModules(TimeModule{})
	app.UseSystem(System(func(tm *Time, cmd *Commands) {
		if tm.Frame == 3 {
			cmd.Exit()
		}
	}))

	err := app.Run(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), app.Ticks())
}

func TestApp_RunCanceled(t *testing.T) {
	app := NewApp()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := app.Run(ctx, time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotZero(t, app.Ticks())
}

type recordingModule struct {
	installed *[]string
	name      string
}

func (m recordingModule) Install(app *App, cmd *Commands) {
	*m.installed = append(*m.installed, m.name)
	cmd.AddResources(NewMockResource2(m.name))
}

func TestApp_UseModules(t *testing.T) {
	var installed []string
	app := NewApp().UseModules(recordingModule{installed: &installed, name: "a"})

	assert.Equal(t, []string{"a"}, installed)
	res, ok := Resource[MockResource2](app)
	require.True(t, ok)
	assert.Equal(t, "a", res.name)
}

func TestApp_Logger(t *testing.T) {
	app := NewApp()
	assert.NotNil(t, app.Logger())
	assert.False(t, app.Logger().DebugEnabled())

	app.UseModules(LoggingModule{Prefix: "test", Debug: true})
	assert.True(t, app.Logger().DebugEnabled())
	assert.True(t, app.Commands().Logger().DebugEnabled())

	var nilApp *App
	assert.NotNil(t, nilApp.Logger())
}
