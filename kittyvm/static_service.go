// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package kittyvm

import (
	"fmt"
	"net/http"

	"github.com/ava-labs/avalanchego/utils/formatting"
	"github.com/gorilla/rpc/v2"

	cjson "github.com/ava-labs/avalanchego/utils/json"
)

// StaticService helps build genesis documents. It needs no running chain.
type StaticService struct{}

// CreateStaticService returns the service served at the VM's static
// endpoint
func CreateStaticService() *StaticService {
	return &StaticService{}
}

// newStaticServer returns a JSON-RPC server exposing StaticService
func newStaticServer() (*rpc.Server, error) {
	server := rpc.NewServer()
	server.RegisterCodec(cjson.NewCodec(), "application/json")
	server.RegisterCodec(cjson.NewCodec(), "application/json;charset=UTF-8")
	if err := server.RegisterService(CreateStaticService(), Name); err != nil {
		return nil, err
	}
	return server, nil
}

// EncodeDNAArgs are arguments for EncodeDNA
type EncodeDNAArgs struct {
	// Data is truncated or zero padded to a DNA
	Data string `json:"data"`
}

// EncodeDNAReply is the reply from EncodeDNA
type EncodeDNAReply struct {
	DNA string `json:"dna"`
}

// EncodeDNA returns [args.Data] as DNA in the encoding genesis expects
func (ss *StaticService) EncodeDNA(_ *http.Request, args *EncodeDNAArgs, reply *EncodeDNAReply) error {
	dna, err := EncodeDNA(BytesToDNA([]byte(args.Data)))
	if err != nil {
		return fmt.Errorf("couldn't encode dna: %w", err)
	}
	reply.DNA = dna
	return nil
}

// BuildGenesisArgs are arguments for BuildGenesis
type BuildGenesisArgs struct {
	Genesis  Genesis             `json:"genesis"`
	Encoding formatting.Encoding `json:"encoding"`
}

// BuildGenesisReply is the reply from BuildGenesis
type BuildGenesisReply struct {
	Bytes    string              `json:"bytes"`
	Encoding formatting.Encoding `json:"encoding"`
}

// BuildGenesis validates [args.Genesis] and returns the genesis bytes a
// chain is created with
func (ss *StaticService) BuildGenesis(_ *http.Request, args *BuildGenesisArgs, reply *BuildGenesisReply) error {
	genesisBytes, err := args.Genesis.Bytes()
	if err != nil {
		return fmt.Errorf("couldn't marshal genesis: %w", err)
	}
	if _, err := ParseGenesis(genesisBytes); err != nil {
		return err
	}
	bytes, err := formatting.EncodeWithChecksum(args.Encoding, genesisBytes)
	if err != nil {
		return fmt.Errorf("couldn't encode genesis as string: %w", err)
	}
	reply.Bytes = bytes
	reply.Encoding = args.Encoding
	return nil
}
