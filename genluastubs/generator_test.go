package genluastubs

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"
)

func writeSet(t *testing.T, files ...*descriptorpb.FileDescriptorProto) string {
	t.Helper()
	data, err := proto.Marshal(&descriptorpb.FileDescriptorSet{File: files})
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "set.pb")
	require.NoError(t, ioutil.WriteFile(path, data, 0644))
	return path
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := ioutil.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func newGenerator(t *testing.T, params *Parameters) *Generator {
	t.Helper()
	g, err := New(params)
	require.NoError(t, err)
	return g
}

func TestRun(t *testing.T) {
	input := writeSet(t, gameFile())
	out := t.TempDir()
	require.NoError(t, newGenerator(t, nil).Run(input, out))

	assert.Equal(t, []string{"Protogame.pb.lua"}, listDir(t, out))
	data, err := ioutil.ReadFile(filepath.Join(out, "Protogame.pb.lua"))
	require.NoError(t, err)
	assert.Equal(t, gameDefine+gameContent, string(data))
}

func TestRunIsIdempotent(t *testing.T) {
	input := writeSet(t, gameFile())
	out := t.TempDir()
	g := newGenerator(t, nil)

	require.NoError(t, g.Run(input, out))
	first, err := ioutil.ReadFile(filepath.Join(out, "Protogame.pb.lua"))
	require.NoError(t, err)

	require.NoError(t, g.Run(input, out))
	second, err := ioutil.ReadFile(filepath.Join(out, "Protogame.pb.lua"))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRunReplacesExistingFile(t *testing.T) {
	input := writeSet(t, gameFile())
	out := t.TempDir()
	stale := filepath.Join(out, "Protogame.pb.lua")
	require.NoError(t, ioutil.WriteFile(stale, []byte("stale content that is longer than the new output "+gameContent+gameContent), 0644))

	require.NoError(t, newGenerator(t, nil).Run(input, out))
	data, err := ioutil.ReadFile(stale)
	require.NoError(t, err)
	assert.Equal(t, gameDefine+gameContent, string(data))
}

func TestRunOneFilePerDescriptor(t *testing.T) {
	other := &descriptorpb.FileDescriptorProto{
		Name:    proto.String("chat/chat.proto"),
		Package: proto.String("chat"),
		MessageType: []*descriptorpb.DescriptorProto{{
			Name: proto.String("Line"),
			Field: []*descriptorpb.FieldDescriptorProto{
				refField("from", descriptorpb.FieldDescriptorProto_TYPE_MESSAGE, ".game.pb.Player", false),
			},
		}},
	}
	input := writeSet(t, gameFile(), other)
	out := t.TempDir()
	require.NoError(t, newGenerator(t, nil).Run(input, out))
	assert.ElementsMatch(t, []string{"Protogame.pb.lua", "Protochat.lua"}, listDir(t, out))

	data, err := ioutil.ReadFile(filepath.Join(out, "Protochat.lua"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "---@field from Protogame.pb.Player\n")
}

func TestRunSamePackageLastWins(t *testing.T) {
	first := &descriptorpb.FileDescriptorProto{
		Name:        proto.String("a.proto"),
		Package:     proto.String("p"),
		MessageType: []*descriptorpb.DescriptorProto{{Name: proto.String("A")}},
	}
	second := &descriptorpb.FileDescriptorProto{
		Name:        proto.String("b.proto"),
		Package:     proto.String("p"),
		MessageType: []*descriptorpb.DescriptorProto{{Name: proto.String("B")}},
	}
	input := writeSet(t, first, second)
	out := t.TempDir()
	require.NoError(t, newGenerator(t, nil).Run(input, out))

	data, err := ioutil.ReadFile(filepath.Join(out, "Protop.lua"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "ProtopDefine.B = \"p.B\"")
	assert.NotContains(t, string(data), "ProtopDefine.A")
}

func TestRunErrors(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.pb")
	require.NoError(t, ioutil.WriteFile(empty, nil, 0644))
	garbage := filepath.Join(dir, "garbage.pb")
	require.NoError(t, ioutil.WriteFile(garbage, []byte("not a descriptor set"), 0644))
	noFiles := filepath.Join(dir, "nofiles.pb")
	require.NoError(t, ioutil.WriteFile(noFiles, []byte{0x10, 0x01}, 0644))
	valid := writeSet(t, gameFile())

	broken := gameFile()
	broken.MessageType[1].Field = append(broken.MessageType[1].Field,
		field("missing", descriptorpb.FieldDescriptorProto_TYPE_ENUM, false))
	// The first file is fine; the second must still stop it being written.
	invalid := writeSet(t, &descriptorpb.FileDescriptorProto{
		Name: proto.String("ok.proto"), Package: proto.String("ok"),
	}, broken)

	tests := []struct {
		name   string
		input  string
		output string
		want   Kind
	}{
		{"missing input", filepath.Join(dir, "nope.pb"), t.TempDir(), KindInputNotFound},
		{"input is a directory", dir, t.TempDir(), KindInputNotFound},
		{"missing output", valid, filepath.Join(dir, "nope"), KindOutputDirNotFound},
		{"output is a file", valid, valid, KindOutputDirNotFound},
		{"empty input", empty, t.TempDir(), KindEmptyInput},
		{"garbage input", garbage, t.TempDir(), KindDecode},
		{"no file descriptors", noFiles, t.TempDir(), KindDecode},
		{"missing type name", invalid, t.TempDir(), KindInvalidDescriptor},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := newGenerator(t, nil).Run(tt.input, tt.output)
			require.Error(t, err)
			assert.Equal(t, int(tt.want), Code(err))
			if fi, statErr := os.Stat(tt.output); statErr == nil && fi.IsDir() {
				assert.Empty(t, listDir(t, tt.output))
			}
		})
	}
}

func TestRunValidate(t *testing.T) {
	fd := gameFile()
	fd.Dependency = []string{"missing.proto"}
	input := writeSet(t, fd)

	out := t.TempDir()
	err := newGenerator(t, &Parameters{Validate: true}).Run(input, out)
	require.Error(t, err)
	assert.Equal(t, int(KindInvalidDescriptor), Code(err))
	assert.Empty(t, listDir(t, out))

	// Without validation cross-file references are not checked.
	require.NoError(t, newGenerator(t, nil).Run(input, out))
	assert.Equal(t, []string{"Protogame.pb.lua"}, listDir(t, out))
}

func TestWriteAllReportsProgress(t *testing.T) {
	out := t.TempDir()
	// A directory in the way of the second stub is never replaced.
	blocker := filepath.Join(out, "Protob.lua")
	require.NoError(t, os.MkdirAll(filepath.Join(blocker, "child"), 0755))

	stubs := []*Stub{
		{Name: "Protoa.lua", Source: "a.proto", Define: "ProtoaDefine= {}\n\n", Content: "Protoa = {}\n"},
		{Name: "Protob.lua", Source: "b.proto", Define: "ProtobDefine= {}\n\n", Content: "Protob = {}\n"},
	}
	err := newGenerator(t, nil).WriteAll(out, stubs)
	require.Error(t, err)
	assert.Equal(t, int(KindWrite), Code(err))
	assert.Contains(t, err.Error(), "wrote 1 of 2 files")
}

func TestOutputName(t *testing.T) {
	fd := gameFile()
	tests := []struct {
		pattern string
		want    string
	}{
		{"", "Protogame.pb.lua"},
		{DefaultOutputNamePattern, "Protogame.pb.lua"},
		{`Proto{{.Package | replace "." "_"}}.lua`, "Protogame_pb.lua"},
		{"{{.BaseName}}_pb.lua", "game_pb.lua"},
		{`lua/{{.Descriptor.GetName | base}}.lua`, filepath.Join("lua", "game.proto.lua")},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			tmpl, err := parseOutputNamePattern(tt.pattern)
			require.NoError(t, err)
			got, err := outputName(tmpl, fd)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOutputNameErrors(t *testing.T) {
	_, err := New(&Parameters{OutputNamePattern: "{{.Package"})
	require.Error(t, err)
	assert.Equal(t, int(KindConfig), Code(err))

	for _, pattern := range []string{"../{{.Package}}.lua", "/tmp/x.lua", ".", "lua/", "lua/..", "{{if false}}x{{end}}", "{{.Missing}}"} {
		t.Run(pattern, func(t *testing.T) {
			tmpl, err := parseOutputNamePattern(pattern)
			require.NoError(t, err)
			_, err = outputName(tmpl, gameFile())
			require.Error(t, err)
			assert.Equal(t, int(KindConfig), Code(err))
		})
	}
}

func TestRunRejectsOutputDirAsName(t *testing.T) {
	input := writeSet(t, gameFile())
	out := t.TempDir()
	err := newGenerator(t, &Parameters{OutputNamePattern: "."}).Run(input, out)
	require.Error(t, err)
	assert.Equal(t, int(KindConfig), Code(err))
	fi, err := os.Stat(out)
	require.NoError(t, err)
	assert.True(t, fi.IsDir())
}

func TestWriteStubRefusesDirectory(t *testing.T) {
	out := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(out, "Protop.lua"), 0755))
	err := writeStub(out, &Stub{Name: "Protop.lua", Define: "ProtopDefine= {}\n\n", Content: "Protop = {}\n"})
	require.Error(t, err)
	assert.Equal(t, int(KindWrite), Code(err))
	fi, err := os.Stat(filepath.Join(out, "Protop.lua"))
	require.NoError(t, err)
	assert.True(t, fi.IsDir())
}

func TestRunWithSubdirectoryPattern(t *testing.T) {
	input := writeSet(t, gameFile())
	out := t.TempDir()
	g := newGenerator(t, &Parameters{OutputNamePattern: "lua/Proto{{.Package}}.lua"})
	require.NoError(t, g.Run(input, out))
	_, err := os.Stat(filepath.Join(out, "lua", "Protogame.pb.lua"))
	assert.NoError(t, err)
}
