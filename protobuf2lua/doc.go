// protobuf2lua generates Lua annotation stubs (EmmyLua / LuaLS ---@class and
// ---@field comments) from a compiled protocol buffer descriptor set, so that
// Lua editors can type-check and complete protobuf messages.
//
// Usage
//
// Compile the schema to a descriptor set, then run the generator on it:
//  protoc -I. --descriptor_set_out=game.pb game.proto
//  protobuf2lua game.pb ./lua/proto
// One file, Proto<package>.lua, is written per .proto file. An existing file
// with the same name is replaced.
//
// Options
//
//  outpattern: template for output file names (default "Proto{{.Package}}.lua").
//    Sprig functions are available, e.g. Proto{{.Package | replace "." "_"}}.lua
//  validate: fail if the set references types or files it does not contain.
//  dump_descriptor: log every file descriptor; needs -v=2.
//
// Exit codes
//
//  0 success
//  1 input file or output directory missing, bad arguments or options
//  2 input file empty
//  3 input is not a descriptor set
//  4 an output file could not be written
//  5 the descriptor set cannot be rendered (e.g. a reference with no type name)
//  7 the input file exists but cannot be read
//
package main
