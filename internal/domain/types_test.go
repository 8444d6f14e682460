/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"encoding/json"
	"testing"
)

func TestScreenCloneIsDeep(t *testing.T) {
	s := Screen{
		ID:          "s1",
		UserJourney: []string{"open"},
		Components: []Component{{
			ID:                  "c1",
			Type:                "header",
			Children:            []string{"c2"},
			RelatedRequirements: []string{"R1"},
		}},
	}
	cp := s.Clone()
	s.UserJourney[0] = "changed"
	s.Components[0].Children[0] = "x"
	s.Components[0].RelatedRequirements[0] = "x"
	s.Components[0].Label = "x"

	if cp.UserJourney[0] != "open" {
		t.Fatalf("user journey shared with clone")
	}
	c := cp.Components[0]
	if c.Children[0] != "c2" || c.RelatedRequirements[0] != "R1" || c.Label != "" {
		t.Fatalf("component state shared with clone: %+v", c)
	}
}

func TestContainerAllowList(t *testing.T) {
	for _, typ := range ContainerTypes() {
		if !IsContainerType(typ) {
			t.Fatalf("%s should be a container", typ)
		}
	}
	for _, typ := range []string{"button", "input", "card", ""} {
		if IsContainerType(typ) {
			t.Fatalf("%q should not be a container", typ)
		}
	}
}

func TestComponentJSONFieldNames(t *testing.T) {
	c := Component{ID: "c1", Type: "button", IACode: "BTN-001", ParentID: "p", ZIndex: 20}
	b, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, k := range []string{"id", "type", "iaCode", "parentId", "zIndex", "width", "height"} {
		if _, ok := m[k]; !ok {
			t.Fatalf("missing json key %q in %s", k, b)
		}
	}
	if _, ok := m["children"]; ok {
		t.Fatalf("empty children should be omitted: %s", b)
	}
}

func TestIndexOfAndLookup(t *testing.T) {
	s := Screen{Components: []Component{{ID: "a"}, {ID: "b"}}}
	if s.IndexOf("b") != 1 || s.IndexOf("zz") != -1 {
		t.Fatalf("IndexOf wrong")
	}
	if _, ok := s.Component("zz"); ok {
		t.Fatalf("unexpected lookup hit")
	}
}
