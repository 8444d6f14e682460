/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	gojsonschema "github.com/xeipuuv/gojsonschema"
)

var (
	// ErrNoRecord means no durable record exists yet.
	ErrNoRecord = errors.New("no persisted record")
	// ErrCorruptRecord means a record exists but cannot be decoded or does
	// not match the expected shape.
	ErrCorruptRecord = errors.New("corrupt persisted record")
)

// RecordKind names one of the two persisted documents.
type RecordKind string

const (
	KindDraft      RecordKind = "wireframe"
	KindCheckpoint RecordKind = "session"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

var (
	schemaOnce sync.Once
	schemas    map[RecordKind]*gojsonschema.Schema
	schemaErr  error
)

func loadSchemas() {
	schemas = map[RecordKind]*gojsonschema.Schema{}
	for _, k := range []RecordKind{KindDraft, KindCheckpoint} {
		b, err := schemaFS.ReadFile("schemas/" + string(k) + ".schema.json")
		if err != nil {
			schemaErr = fmt.Errorf("read %s schema: %w", k, err)
			return
		}
		s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(b))
		if err != nil {
			schemaErr = fmt.Errorf("compile %s schema: %w", k, err)
			return
		}
		schemas[k] = s
	}
}

// SchemaBytes returns the embedded JSON Schema for kind.
func SchemaBytes(kind RecordKind) ([]byte, error) {
	return schemaFS.ReadFile("schemas/" + string(kind) + ".schema.json")
}

// Validate checks data against the schema of kind. Shape violations are
// reported as errors wrapping ErrCorruptRecord.
func Validate(kind RecordKind, data []byte) error {
	schemaOnce.Do(loadSchemas)
	if schemaErr != nil {
		return schemaErr
	}
	res, err := schemas[kind].Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCorruptRecord, kind, err)
	}
	if res.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(res.Errors()))
	for i, e := range res.Errors() {
		if i == 5 {
			msgs = append(msgs, fmt.Sprintf("and %d more", len(res.Errors())-5))
			break
		}
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("%w: %s: %s", ErrCorruptRecord, kind, strings.Join(msgs, "; "))
}
