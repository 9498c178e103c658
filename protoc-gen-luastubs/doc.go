// protoc-gen-luastubs is a protoc plugin that emits the same Lua annotation
// stubs as protobuf2lua, one Proto<package>.lua file per generated .proto file.
//
// Usage
//
//  protoc -I. --luastubs_out=./lua/proto game.proto
//
// Options are passed as a comma separated list before the output directory:
//  protoc -I. --luastubs_out=validate=true,outpattern=Proto{{.BaseName}}.lua:./lua/proto game.proto
//
// See protobuf2lua for the meaning of each option.
package main
