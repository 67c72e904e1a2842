package main

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/mr-tron/base58"

	"github.com/code-payments/code-config-program/pkg/solana"
	"github.com/code-payments/code-config-program/pkg/solana/configprogram"
)

type accountMetaOutput struct {
	Address    string `json:"address"`
	IsSigner   bool   `json:"is_signer"`
	IsWritable bool   `json:"is_writable"`
}

type instructionOutput struct {
	Program  string              `json:"program"`
	Data     string              `json:"data"`
	Accounts []accountMetaOutput `json:"accounts"`
}

type configOutput struct {
	Address        string `json:"address"`
	Schema         string `json:"schema"`
	Bump           uint8  `json:"bump"`
	Base           string `json:"base"`
	Admin          string `json:"admin"`
	Server         string `json:"server,omitempty"`
	FeeBasisPoints uint64 `json:"fee_basis_points"`
	Lamports       uint64 `json:"lamports"`
}

func newInstructionOutput(ix solana.Instruction) instructionOutput {
	out := instructionOutput{
		Program: base58.Encode(ix.Program),
		Data:    base64.StdEncoding.EncodeToString(ix.Data),
	}
	for _, meta := range ix.Accounts {
		out.Accounts = append(out.Accounts, accountMetaOutput{
			Address:    base58.Encode(meta.PublicKey),
			IsSigner:   meta.IsSigner,
			IsWritable: meta.IsWritable,
		})
	}
	return out
}

func newConfigOutput(address []byte, schema configprogram.Schema, config *configprogram.ConfigAccount, lamports uint64) configOutput {
	out := configOutput{
		Address:        base58.Encode(address),
		Schema:         schema.Name,
		Bump:           config.Bump,
		Base:           base58.Encode(config.Base),
		Admin:          base58.Encode(config.Admin),
		FeeBasisPoints: config.FeeBasisPoints,
		Lamports:       lamports,
	}
	if config.Server != nil {
		out.Server = base58.Encode(config.Server)
	}
	return out
}

func printInstruction(ix solana.Instruction) error {
	out := newInstructionOutput(ix)
	if cfg.JSONOutput {
		return printJSON(out)
	}

	fmt.Printf("program:  %s\n", out.Program)
	fmt.Printf("data:     %s\n", out.Data)
	fmt.Println("accounts:")
	for i, meta := range out.Accounts {
		fmt.Printf("  %d. %s%s\n", i, meta.Address, flagsString(meta.IsSigner, meta.IsWritable))
	}
	return nil
}

func printConfig(out configOutput) error {
	if cfg.JSONOutput {
		return printJSON(out)
	}

	fmt.Printf("address:          %s\n", out.Address)
	fmt.Printf("schema:           %s\n", out.Schema)
	fmt.Printf("bump:             %d\n", out.Bump)
	fmt.Printf("base:             %s\n", out.Base)
	fmt.Printf("admin:            %s\n", out.Admin)
	if len(out.Server) > 0 {
		fmt.Printf("server:           %s\n", out.Server)
	}
	fmt.Printf("fee_basis_points: %d\n", out.FeeBasisPoints)
	fmt.Printf("lamports:         %d\n", out.Lamports)
	return nil
}

func printConfigs(configs []configOutput) error {
	if cfg.JSONOutput {
		return printJSON(configs)
	}

	for i, out := range configs {
		if i > 0 {
			fmt.Println("---")
		}
		if err := printConfig(out); err != nil {
			return err
		}
	}
	return nil
}

func printFields(fields map[string]interface{}) error {
	if cfg.JSONOutput {
		return printJSON(fields)
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		fmt.Printf("%s: %v\n", k, fields[k])
	}
	return nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func flagsString(isSigner, isWritable bool) string {
	switch {
	case isSigner && isWritable:
		return " [writable, signer]"
	case isSigner:
		return " [signer]"
	case isWritable:
		return " [writable]"
	default:
		return ""
	}
}
