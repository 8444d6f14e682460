/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// WireframeRecord is the "last edited wireframe" draft document.
type WireframeRecord struct {
	Screens      []Screen `json:"screens"`
	Timestamp    string   `json:"timestamp"`
	ProjectLabel string   `json:"projectLabel"`
}

// SessionRecord is the "canvas session" checkpoint document. SelectedScreen
// is a full copy of the screen that was selected at save time.
type SessionRecord struct {
	Screens        []Screen `json:"screens"`
	SelectedScreen *Screen  `json:"selectedScreen"`
	Timestamp      string   `json:"timestamp"`
}

// User is the read-only identity of the logged-in designer.
type User struct {
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// Requirement is an entry of the external requirement catalog.
type Requirement struct {
	ID          string `json:"id"`
	DisplayCode string `json:"displayCode"`
	Name        string `json:"name"`
}
