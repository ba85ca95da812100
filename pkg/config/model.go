// Copyright 2025 UMH Systems GmbH
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/united-manufacturing-hub/twinstore/pkg/codec"
	"github.com/united-manufacturing-hub/twinstore/pkg/model"
)

// FileModelProvider loads the initial environment from a JSON or YAML file. The
// format follows the file extension; anything but .yaml and .yml is read as JSON.
type FileModelProvider struct {
	Path string
}

func NewFileModelProvider(path string) *FileModelProvider {
	return &FileModelProvider{Path: path}
}

// InitialModel reads and decodes the environment file.
func (p *FileModelProvider) InitialModel(ctx context.Context) (*model.Environment, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	data, err := os.ReadFile(p.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read initial model: %w", err)
	}

	var raw map[string]interface{}

	switch strings.ToLower(filepath.Ext(p.Path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	default:
		err = json.Unmarshal(data, &raw)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to parse initial model %s: %w", p.Path, err)
	}

	if raw == nil {
		return &model.Environment{}, nil
	}

	env, err := codec.DecodeEnvironment(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode initial model %s: %w", p.Path, err)
	}

	return env, nil
}
