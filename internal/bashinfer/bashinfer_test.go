package bashinfer

import (
	"reflect"
	"testing"
)

func TestInfer(t *testing.T) {
	cases := []struct {
		name    string
		command string
		want    Paths
	}{
		{
			name:    "redirect write",
			command: `echo "hello" > /tmp/out.txt`,
			want:    Paths{Writes: []string{"/tmp/out.txt"}},
		},
		{
			name:    "append redirect",
			command: `printf 'x' >> log.txt`,
			want:    Paths{Writes: []string{"log.txt"}},
		},
		{
			name:    "tee",
			command: `echo hi | tee /tmp/a.txt`,
			want: Paths{
				Writes: []string{"/tmp/a.txt"},
			},
		},
		{
			name:    "cat read",
			command: `cat /tmp/in.txt`,
			want:    Paths{Reads: []string{"/tmp/in.txt"}},
		},
		{
			name:    "sed in place",
			command: `sed -i 's/a/b/' file.go`,
			want:    Paths{Writes: []string{"file.go"}},
		},
		{
			name:    "rm with flags",
			command: `rm -rf /tmp/scratch`,
			want:    Paths{Deletes: []string{"/tmp/scratch"}},
		},
		{
			name:    "rm multiple files",
			command: `rm a.txt b.txt`,
			want:    Paths{Deletes: []string{"a.txt", "b.txt"}},
		},
		{
			name:    "shell wrapped",
			command: `bash -lc "cat /tmp/in.txt > /tmp/out.txt"`,
			want: Paths{
				Writes: []string{"/tmp/out.txt"},
				Reads:  []string{"/tmp/in.txt"},
			},
		},
		{
			name:    "no matches",
			command: `ls -la`,
			want:    Paths{},
		},
		{
			name:    "leading-dash target filtered",
			command: `echo hi > -weird`,
			want:    Paths{},
		},
		{
			name:    "rm flag-only is not a delete",
			command: `rm -rf -weird`,
			want:    Paths{},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := Infer(c.command)
			if !reflect.DeepEqual(got.Writes, c.want.Writes) {
				t.Errorf("Writes = %v, want %v", got.Writes, c.want.Writes)
			}
			if !reflect.DeepEqual(got.Reads, c.want.Reads) {
				t.Errorf("Reads = %v, want %v", got.Reads, c.want.Reads)
			}
			if !reflect.DeepEqual(got.Deletes, c.want.Deletes) {
				t.Errorf("Deletes = %v, want %v", got.Deletes, c.want.Deletes)
			}
		})
	}
}
