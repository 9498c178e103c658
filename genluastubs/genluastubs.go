package genluastubs

import (
	"strconv"
	"strings"

	"google.golang.org/protobuf/types/descriptorpb"
)

const namePrefix = "Proto"

// stubBuilder accumulates the two halves of one generated file.
type stubBuilder struct {
	pkg           string
	defineName    string
	containerName string
	define        strings.Builder
	content       strings.Builder
}

func newStubBuilder(pkg string) *stubBuilder {
	b := &stubBuilder{
		pkg:           pkg,
		defineName:    namePrefix + pkg + "Define",
		containerName: namePrefix + pkg,
	}
	b.defineLine(b.defineName + "= {}")
	b.contentLine(b.containerName + " = {}")
	return b
}

func (b *stubBuilder) defineLine(s string) {
	b.define.WriteString(s)
	b.define.WriteByte('\n')
}

func (b *stubBuilder) contentLine(s string) {
	b.content.WriteString(s)
	b.content.WriteByte('\n')
}

func (b *stubBuilder) addEnum(e *descriptorpb.EnumDescriptorProto) {
	name := b.containerName + "." + e.GetName()
	b.contentLine("---@class " + name)
	b.contentLine(name + " = {")
	for _, v := range e.GetValue() {
		b.contentLine("    " + v.GetName() + " = " + strconv.Itoa(int(v.GetNumber())) + ",")
	}
	b.contentLine("}")
	b.contentLine("")
}

// register adds a short-name entry for a top-level message. Nested
// messages are never registered.
func (b *stubBuilder) register(m *descriptorpb.DescriptorProto) {
	b.defineLine(b.defineName + "." + m.GetName() + " = \"" + b.pkg + "." + m.GetName() + "\"")
}

func (b *stubBuilder) addClass(className string, m *descriptorpb.DescriptorProto) error {
	b.contentLine("---@class " + className)
	for _, f := range m.GetField() {
		t, err := luaFieldType(f)
		if err != nil {
			return errorf(KindInvalidDescriptor, "%s.%s: %v", className, f.GetName(), err)
		}
		b.contentLine("---@field " + f.GetName() + " " + t)
	}
	b.contentLine("")
	return nil
}

func (b *stubBuilder) addMessage(m *descriptorpb.DescriptorProto) error {
	b.register(m)
	className := b.containerName + "." + m.GetName()
	for _, nested := range m.GetNestedType() {
		if err := b.addClass(className+"."+nested.GetName(), nested); err != nil {
			return err
		}
	}
	return b.addClass(className, m)
}

// generateLuaStubs renders one file descriptor. The returned define text is
// the name registry; the content text holds the annotations.
func generateLuaStubs(file *descriptorpb.FileDescriptorProto) (define, content string, err error) {
	b := newStubBuilder(file.GetPackage())
	for _, e := range file.GetEnumType() {
		b.addEnum(e)
	}
	for _, m := range file.GetMessageType() {
		if err := b.addMessage(m); err != nil {
			return "", "", err
		}
	}
	b.defineLine("")
	return b.define.String(), b.content.String(), nil
}

type errMissingTypeName struct {
	kind descriptorpb.FieldDescriptorProto_Type
}

func (e errMissingTypeName) Error() string {
	return "reference field of type " + e.kind.String() + " has no type name"
}

// luaFieldType maps a field to its annotation type.
func luaFieldType(f *descriptorpb.FieldDescriptorProto) (string, error) {
	var luaType string
	switch f.GetType() {
	case descriptorpb.FieldDescriptorProto_TYPE_DOUBLE:
		fallthrough
	case descriptorpb.FieldDescriptorProto_TYPE_FLOAT:
		fallthrough
	case descriptorpb.FieldDescriptorProto_TYPE_INT64:
		fallthrough
	case descriptorpb.FieldDescriptorProto_TYPE_UINT64:
		fallthrough
	case descriptorpb.FieldDescriptorProto_TYPE_INT32:
		fallthrough
	case descriptorpb.FieldDescriptorProto_TYPE_FIXED64:
		fallthrough
	case descriptorpb.FieldDescriptorProto_TYPE_FIXED32:
		fallthrough
	case descriptorpb.FieldDescriptorProto_TYPE_UINT32:
		fallthrough
	case descriptorpb.FieldDescriptorProto_TYPE_SFIXED32:
		fallthrough
	case descriptorpb.FieldDescriptorProto_TYPE_SFIXED64:
		fallthrough
	case descriptorpb.FieldDescriptorProto_TYPE_SINT32:
		fallthrough
	case descriptorpb.FieldDescriptorProto_TYPE_SINT64:
		luaType = "number"
	case descriptorpb.FieldDescriptorProto_TYPE_STRING:
		luaType = "string"
	case descriptorpb.FieldDescriptorProto_TYPE_BOOL:
		luaType = "boolean"
	case descriptorpb.FieldDescriptorProto_TYPE_ENUM:
		fallthrough
	case descriptorpb.FieldDescriptorProto_TYPE_MESSAGE:
		// Type names are fully qualified, e.g. ".game.pb.Player".
		typeName := f.GetTypeName()
		if typeName == "" {
			return "", errMissingTypeName{f.GetType()}
		}
		luaType = namePrefix + typeName[1:]
	default:
		// bytes and group have no Lua counterpart; repeated is ignored.
		return "unknown", nil
	}
	if f.GetLabel() == descriptorpb.FieldDescriptorProto_LABEL_REPEATED {
		luaType += "[]"
	}
	return luaType, nil
}
