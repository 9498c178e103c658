package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/golang/glog"
	"github.com/tmc/protobuf2lua/genluastubs"
)

var (
	flagOutputFilenamePattern = flag.String("outpattern", genluastubs.DefaultOutputNamePattern, "output filename pattern")
	flagValidate              = flag.Bool("validate", false, "if true, fail when the descriptor set has unresolved references")
	flagDumpDescriptor        = flag.Bool("dump_descriptor", false, "if true, dump each file descriptor (needs -v=2)")
)

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] <input> <output>\n", os.Args[0])
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()
	code := run(flag.Args(), os.Stdout, os.Stderr)
	glog.Flush()
	os.Exit(code)
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 2 {
		fmt.Fprintln(stderr, "expected 2 arguments: <input> <output>")
		flag.CommandLine.SetOutput(stderr)
		flag.Usage()
		return int(genluastubs.KindConfig)
	}
	g, err := genluastubs.New(&genluastubs.Parameters{
		OutputNamePattern: *flagOutputFilenamePattern,
		Validate:          *flagValidate,
		DumpDescriptor:    *flagDumpDescriptor,
	})
	if err == nil {
		err = g.Run(args[0], args[1])
	}
	if err != nil {
		code := genluastubs.Code(err)
		glog.Errorf("generate failed: %v", err)
		fmt.Fprintf(stderr, "generate failed, error code: %d: %v\n", code, err)
		return code
	}
	fmt.Fprintln(stdout, "generated lua annotation files")
	return 0
}
