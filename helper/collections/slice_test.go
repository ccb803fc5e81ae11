// Copyright 2019 The sweeprun authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package collections

import "testing"

func TestContainsString(t *testing.T) {
	type args struct {
		s []string
		e string
	}
	tests := []struct {
		name string
		args args
		want bool
	}{
		{"EmptySlice", args{[]string{}, "COMPLETED"}, false},
		{"NilSlice", args{nil, "COMPLETED"}, false},
		{"EmptyString", args{[]string{""}, ""}, true},
		{"SimpleString", args{[]string{"COMPLETED"}, "COMPLETED"}, true},
		{"AtMiddle", args{[]string{"PENDING", "RUNNING", "FAILED"}, "RUNNING"}, true},
		{"CaseSensitive", args{[]string{"PENDING", "RUNNING"}, "running"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ContainsString(tt.args.s, tt.args.e); got != tt.want {
				t.Errorf("ContainsString() = %v, want %v", got, tt.want)
			}
		})
	}
}
