// Copyright 2025 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package testpb contains message types for tests, written the way generated
// code for sharedpb would be.
package testpb

import (
	_ "embed"
	"fmt"

	"google.golang.org/protobuf/encoding/prototext"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
)

//go:embed test.txtpb
var fileText []byte

// File is the descriptor for every type in this package.
var File = mustLoad()

func mustLoad() protoreflect.FileDescriptor {
	fdp := new(descriptorpb.FileDescriptorProto)
	if err := prototext.Unmarshal(fileText, fdp); err != nil {
		panic(fmt.Errorf("testpb: parsing descriptor: %w", err))
	}
	fd, err := protodesc.NewFile(fdp, new(protoregistry.Files))
	if err != nil {
		panic(fmt.Errorf("testpb: building descriptor: %w", err))
	}
	return fd
}

// Descriptor returns the descriptor for a message in this package by its
// short name; panics if there is no such message.
func Descriptor(name protoreflect.Name) protoreflect.MessageDescriptor {
	md := File.Messages().ByName(name)
	if md == nil {
		panic(fmt.Sprintf("testpb: no message named %s", name))
	}
	return md
}
