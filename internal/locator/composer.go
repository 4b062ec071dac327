package locator

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

type composerAutoload struct {
	Psr4     map[string]stringList `json:"psr-4"`
	Classmap []string              `json:"classmap"`
	Files    []string              `json:"files"`
}

type composerManifest struct {
	Autoload    composerAutoload `json:"autoload"`
	AutoloadDev composerAutoload `json:"autoload-dev"`
}

// stringList accepts either a string or a list of strings.
type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*l = stringList{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*l = many
	return nil
}

// NewComposer builds locators from the autoload sections of the
// composer.json in root: PSR-4 prefixes, plus a directory index over the
// classmap and files entries.
func NewComposer(ctx context.Context, root string, indexer Indexer, opts ...DirectoryOption) (Locators, error) {
	manifestPath := filepath.Join(root, "composer.json")
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("locator: read %s: %w", manifestPath, err)
	}
	var manifest composerManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("locator: parse %s: %w", manifestPath, err)
	}

	mapping := make(map[string][]string)
	var indexed []string
	for _, section := range []composerAutoload{manifest.Autoload, manifest.AutoloadDev} {
		for ns, dirs := range section.Psr4 {
			for _, dir := range dirs {
				mapping[ns] = append(mapping[ns], filepath.Join(root, dir))
			}
		}
		for _, p := range section.Classmap {
			indexed = append(indexed, filepath.Join(root, p))
		}
		for _, p := range section.Files {
			indexed = append(indexed, filepath.Join(root, p))
		}
	}

	out := Locators{NewPsr4(mapping)}
	if len(indexed) > 0 {
		dir, err := NewDirectory(ctx, indexed, indexer, opts...)
		if err != nil {
			return nil, err
		}
		out = append(out, dir)
	}
	return out, nil
}
