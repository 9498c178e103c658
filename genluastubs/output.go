package genluastubs

import (
	"bytes"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig"
	"github.com/pkg/errors"
	"google.golang.org/protobuf/types/descriptorpb"
)

// DefaultOutputNamePattern names each stub after its package.
const DefaultOutputNamePattern = "Proto{{.Package}}.lua"

type outputNameData struct {
	Package    string
	BaseName   string
	Descriptor *descriptorpb.FileDescriptorProto
}

func parseOutputNamePattern(pattern string) (*template.Template, error) {
	if pattern == "" {
		pattern = DefaultOutputNamePattern
	}
	tmpl, err := template.New("outpattern").Funcs(sprig.TxtFuncMap()).Parse(pattern)
	if err != nil {
		return nil, newError(KindConfig, errors.Wrap(err, "parsing output name pattern"))
	}
	return tmpl, nil
}

// outputName renders the file name for fd. The result is relative and must
// stay inside the output directory.
func outputName(tmpl *template.Template, fd *descriptorpb.FileDescriptorProto) (string, error) {
	base := filepath.Base(fd.GetName())
	base = strings.TrimSuffix(base, filepath.Ext(base))
	buf := new(bytes.Buffer)
	err := tmpl.Execute(buf, outputNameData{
		Package:    fd.GetPackage(),
		BaseName:   base,
		Descriptor: fd,
	})
	if err != nil {
		return "", newError(KindConfig, errors.Wrapf(err, "rendering output name for %s", fd.GetName()))
	}
	name := buf.String()
	if name == "" {
		return "", errorf(KindConfig, "output name for %s is empty", fd.GetName())
	}
	if strings.HasSuffix(name, "/") || strings.HasSuffix(name, string(filepath.Separator)) {
		return "", errorf(KindConfig, "output name %q for %s names a directory", name, fd.GetName())
	}
	clean := filepath.Clean(name)
	if clean == "." {
		return "", errorf(KindConfig, "output name %q for %s names the output directory", name, fd.GetName())
	}
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", errorf(KindConfig, "output name %q for %s escapes the output directory", name, fd.GetName())
	}
	return clean, nil
}
