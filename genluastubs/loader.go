package genluastubs

import (
	"io/ioutil"
	"os"

	"github.com/golang/glog"
	"github.com/golang/protobuf/proto"
	"github.com/jhump/protoreflect/desc"
	"github.com/pkg/errors"
	"google.golang.org/protobuf/types/descriptorpb"
)

// Load reads the descriptor set at path, as written by
// protoc --descriptor_set_out.
func Load(path string) (*descriptorpb.FileDescriptorSet, error) {
	fi, err := os.Stat(path)
	if err != nil || !fi.Mode().IsRegular() {
		return nil, errorf(KindInputNotFound, "input file %q does not exist", path)
	}
	if fi.Size() == 0 {
		return nil, errorf(KindEmptyInput, "input file %q is empty", path)
	}
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, newError(KindRead, errors.Wrap(err, "reading input"))
	}
	// The file can be truncated between the stat and the read.
	if len(data) == 0 {
		return nil, errorf(KindEmptyInput, "input file %q is empty", path)
	}
	return Decode(data)
}

// Decode parses a serialized FileDescriptorSet.
func Decode(data []byte) (*descriptorpb.FileDescriptorSet, error) {
	set := &descriptorpb.FileDescriptorSet{}
	if err := proto.Unmarshal(data, set); err != nil {
		return nil, newError(KindDecode, errors.Wrap(err, "parsing input"))
	}
	if len(set.GetFile()) == 0 {
		return nil, errorf(KindDecode, "input contains no file descriptors")
	}
	glog.V(1).Infof("Loaded %d file descriptors", len(set.GetFile()))
	return set, nil
}

// Validate links every file in set against the others and fails if a
// dependency or a referenced type is missing.
func Validate(set *descriptorpb.FileDescriptorSet) error {
	files, err := desc.CreateFileDescriptorsFromSet(set)
	if err != nil {
		return newError(KindInvalidDescriptor, errors.Wrap(err, "validating descriptor set"))
	}
	glog.V(1).Infof("Validated %d file descriptors", len(files))
	return nil
}
