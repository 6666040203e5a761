package lottie

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/h2non/filetype"
)

var ErrInvalid = errors.New("lottie: invalid animation")

// Decode parses a Lottie JSON document or a dotLottie (zip) container.
func Decode(data []byte) (*Animation, error) {
	if filetype.Is(data, "zip") {
		inner, err := extractDotLottie(data)
		if err != nil {
			return nil, err
		}
		data = inner
	}

	var anim Animation
	if err := json.Unmarshal(data, &anim); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := anim.validate(); err != nil {
		return nil, err
	}
	return &anim, nil
}

func (a *Animation) validate() error {
	switch {
	case a.W <= 0 || a.H <= 0:
		return fmt.Errorf("%w: non-positive size %vx%v", ErrInvalid, a.W, a.H)
	case a.FrameRate <= 0:
		return fmt.Errorf("%w: non-positive frame rate %v", ErrInvalid, a.FrameRate)
	case a.OutPoint <= a.InPoint:
		return fmt.Errorf("%w: out point %v not after in point %v", ErrInvalid, a.OutPoint, a.InPoint)
	}
	return nil
}

type dotLottieManifest struct {
	Animations []struct {
		ID string `json:"id"`
	} `json:"animations"`
}

// extractDotLottie returns the first animation of a .lottie archive: the one
// named by manifest.json if present, otherwise the first animations/*.json.
func extractDotLottie(data []byte) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: bad dotLottie archive: %v", ErrInvalid, err)
	}

	files := map[string]*zip.File{}
	var candidates []string
	for _, f := range zr.File {
		files[f.Name] = f
		if path.Dir(f.Name) == "animations" && strings.HasSuffix(f.Name, ".json") {
			candidates = append(candidates, f.Name)
		}
	}

	if mf, ok := files["manifest.json"]; ok {
		raw, err := readZipFile(mf)
		if err != nil {
			return nil, err
		}
		var manifest dotLottieManifest
		if err := json.Unmarshal(raw, &manifest); err == nil && len(manifest.Animations) > 0 {
			if f, ok := files["animations/"+manifest.Animations[0].ID+".json"]; ok {
				return readZipFile(f)
			}
		}
	}

	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: dotLottie archive has no animations", ErrInvalid)
	}
	sort.Strings(candidates)
	return readZipFile(files[candidates[0]])
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open %s: %v", ErrInvalid, f.Name, err)
	}
	defer rc.Close()
	raw, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read %s: %v", ErrInvalid, f.Name, err)
	}
	return raw, nil
}
