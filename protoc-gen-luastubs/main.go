package main

import (
	"flag"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/glog"
	"github.com/golang/protobuf/proto"
	plugin "github.com/golang/protobuf/protoc-gen-go/plugin"
	"github.com/pkg/errors"
	"github.com/tmc/protobuf2lua/genluastubs"
	"golang.org/x/term"
	"google.golang.org/protobuf/types/descriptorpb"
)

var (
	flagOutputFilenamePattern = flag.String("outpattern", genluastubs.DefaultOutputNamePattern, "output filename pattern")
	flagValidate              = flag.Bool("validate", false, "if true, fail when the request has unresolved references")
	flagDumpDescriptor        = flag.Bool("dump_descriptor", false, "if true, dump each file descriptor (needs v=2)")
)

func main() {
	flag.Parse()
	if term.IsTerminal(int(os.Stdin.Fd())) {
		flag.Usage()
		log.Fatalln("stdin appears to be a tty device. This tool is meant to be invoked via the protoc command via a --luastubs_out directive.")
	}
	data, err := ioutil.ReadAll(os.Stdin)
	if err != nil {
		log.Fatalln(errors.Wrap(err, "reading input"))
	}
	req := &plugin.CodeGeneratorRequest{}
	if err := proto.Unmarshal(data, req); err != nil {
		log.Fatalln(errors.Wrap(err, "parsing input"))
	}
	if len(req.FileToGenerate) == 0 {
		log.Fatalln("no files to generate")
	}
	if err := parseFlags(req.Parameter); err != nil {
		log.Fatalln(err)
	}
	resp := generate(req, &genluastubs.Parameters{
		OutputNamePattern: *flagOutputFilenamePattern,
		Validate:          *flagValidate,
		DumpDescriptor:    *flagDumpDescriptor,
	})
	data, err = proto.Marshal(resp)
	if err != nil {
		log.Fatalln(errors.Wrap(err, "failed to marshal output proto"))
	}
	if _, err := os.Stdout.Write(data); err != nil {
		log.Fatalln(errors.Wrap(err, "failed to write output proto"))
	}
	glog.Flush()
}

// generate never fails outright; errors are reported to protoc in the
// response.
func generate(req *plugin.CodeGeneratorRequest, params *genluastubs.Parameters) *plugin.CodeGeneratorResponse {
	resp := &plugin.CodeGeneratorResponse{}
	stubs, err := generateStubs(req, params)
	if err != nil {
		resp.Error = proto.String(err.Error())
		return resp
	}
	index := map[string]int{}
	for _, s := range stubs {
		name := filepath.ToSlash(s.Name)
		f := &plugin.CodeGeneratorResponse_File{
			Name:    proto.String(name),
			Content: proto.String(s.Text()),
		}
		// protoc rejects duplicate names; a later file for the same
		// package replaces the earlier one, as on disk.
		if i, ok := index[name]; ok {
			glog.Warningf("%s: output from an earlier file is replaced by %s", name, s.Source)
			resp.File[i] = f
			continue
		}
		index[name] = len(resp.File)
		resp.File = append(resp.File, f)
	}
	return resp
}

func generateStubs(req *plugin.CodeGeneratorRequest, params *genluastubs.Parameters) ([]*genluastubs.Stub, error) {
	g, err := genluastubs.New(params)
	if err != nil {
		return nil, err
	}
	if params.Validate {
		// protoc sends every dependency of the targets in proto_file.
		if err := genluastubs.Validate(&descriptorpb.FileDescriptorSet{File: req.GetProtoFile()}); err != nil {
			return nil, err
		}
	}
	targets := map[string]bool{}
	for _, name := range req.GetFileToGenerate() {
		targets[name] = true
	}
	var files []*descriptorpb.FileDescriptorProto
	for _, fd := range req.GetProtoFile() {
		if targets[fd.GetName()] {
			files = append(files, fd)
		}
	}
	return g.Generate(files)
}

func parseFlags(s *string) error {
	if s == nil {
		return nil
	}
	for _, p := range strings.Split(*s, ",") {
		if p == "" {
			continue
		}
		spec := strings.SplitN(p, "=", 2)
		if len(spec) == 1 {
			if err := flag.CommandLine.Set(spec[0], "true"); err != nil {
				return errors.Wrapf(err, "cannot set flag %s", p)
			}
			continue
		}
		name, value := spec[0], spec[1]
		if err := flag.CommandLine.Set(name, value); err != nil {
			return errors.Wrapf(err, "cannot set flag %s", p)
		}
	}
	return nil
}
