package genluastubs

import (
	"os"
	"path/filepath"
	"text/template"

	"github.com/davecgh/go-spew/spew"
	"github.com/golang/glog"
	"github.com/pkg/errors"
	"google.golang.org/protobuf/types/descriptorpb"
)

// Parameters control a Generator.
type Parameters struct {
	// OutputNamePattern is a text/template (with sprig functions) naming
	// each output file. Empty means DefaultOutputNamePattern.
	OutputNamePattern string
	// Validate links the descriptor set before generating.
	Validate bool
	// DumpDescriptor logs every file descriptor at verbosity 2.
	DumpDescriptor bool
}

// Stub is the generated output for one file descriptor.
type Stub struct {
	// Name is the output file name, relative to the output directory.
	Name string
	// Source is the name of the .proto file the stub was generated from.
	Source string
	// Package is the protobuf package, reported when stubs collide.
	Package string
	Define  string
	Content string
}

// Text returns the full file contents.
func (s *Stub) Text() string {
	return s.Define + s.Content
}

// Generator turns descriptor sets into Lua annotation files.
type Generator struct {
	params Parameters
	names  *template.Template
}

// New returns a Generator, or a KindConfig error if the output name
// pattern does not parse.
func New(params *Parameters) (*Generator, error) {
	g := &Generator{}
	if params != nil {
		g.params = *params
	}
	tmpl, err := parseOutputNamePattern(g.params.OutputNamePattern)
	if err != nil {
		return nil, err
	}
	g.names = tmpl
	return g, nil
}

// Run loads input, generates a stub per file descriptor and writes them
// into outputDir.
func (g *Generator) Run(input, outputDir string) error {
	if fi, err := os.Stat(input); err != nil || !fi.Mode().IsRegular() {
		return errorf(KindInputNotFound, "input file %q does not exist", input)
	}
	if err := CheckOutputDir(outputDir); err != nil {
		return err
	}
	set, err := Load(input)
	if err != nil {
		return err
	}
	if g.params.Validate {
		if err := Validate(set); err != nil {
			return err
		}
	}
	stubs, err := g.Generate(set.GetFile())
	if err != nil {
		return err
	}
	return g.WriteAll(outputDir, stubs)
}

// CheckOutputDir fails with KindOutputDirNotFound unless dir is an
// existing directory.
func CheckOutputDir(dir string) error {
	fi, err := os.Stat(dir)
	if err != nil || !fi.IsDir() {
		return errorf(KindOutputDirNotFound, "output directory %q does not exist", dir)
	}
	return nil
}

// Generate renders every file. Nothing is returned unless every file
// renders, so a bad descriptor never leaves partial output behind.
func (g *Generator) Generate(files []*descriptorpb.FileDescriptorProto) ([]*Stub, error) {
	var stubs []*Stub
	for _, fd := range files {
		glog.V(1).Infof("Processing %s", fd.GetName())
		if g.params.DumpDescriptor {
			glog.V(2).Info(spew.Sdump(fd))
		}
		name, err := outputName(g.names, fd)
		if err != nil {
			return nil, err
		}
		define, content, err := generateLuaStubs(fd)
		if err != nil {
			return nil, errors.Wrapf(err, "generating %s", fd.GetName())
		}
		stubs = append(stubs, &Stub{
			Name:    name,
			Source:  fd.GetName(),
			Package: fd.GetPackage(),
			Define:  define,
			Content: content,
		})
		glog.V(1).Infof("Will emit %s", name)
	}
	return stubs, nil
}

// WriteAll writes stubs into dir in order. Stubs sharing a name replace one
// another, so the last one wins. The first failure aborts the run.
func (g *Generator) WriteAll(dir string, stubs []*Stub) error {
	seen := map[string]*Stub{}
	for i, s := range stubs {
		if prev, ok := seen[s.Name]; ok {
			glog.Warningf("%s: output from %s (package %q) is replaced by %s (package %q)", s.Name, prev.Source, prev.Package, s.Source, s.Package)
		}
		seen[s.Name] = s
		if err := writeStub(dir, s); err != nil {
			return errors.Wrapf(err, "wrote %d of %d files", i, len(stubs))
		}
	}
	return nil
}

// writeStub replaces dir/s.Name with the stub text.
func writeStub(dir string, s *Stub) error {
	path := filepath.Join(dir, s.Name)
	if fi, err := os.Lstat(path); err == nil && fi.IsDir() {
		return errorf(KindWrite, "%s is a directory", path)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return newError(KindWrite, errors.Wrapf(err, "removing %s", path))
	}
	if sub := filepath.Dir(path); sub != filepath.Clean(dir) {
		if err := os.MkdirAll(sub, 0755); err != nil {
			return newError(KindWrite, errors.Wrapf(err, "creating %s", sub))
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return newError(KindWrite, errors.Wrapf(err, "creating %s", path))
	}
	if _, err := f.WriteString(s.Text()); err != nil {
		f.Close()
		return newError(KindWrite, errors.Wrapf(err, "writing %s", path))
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return newError(KindWrite, errors.Wrapf(err, "syncing %s", path))
	}
	if err := f.Close(); err != nil {
		return newError(KindWrite, errors.Wrapf(err, "closing %s", path))
	}
	return nil
}
