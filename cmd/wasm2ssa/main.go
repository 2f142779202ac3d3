package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/wasmcore/wasm2ssa/internal/decoder"
	"github.com/wasmcore/wasm2ssa/internal/environ/refenv"
	"github.com/wasmcore/wasm2ssa/internal/ir"
	"github.com/wasmcore/wasm2ssa/internal/translate"
)

func main() {
	os.Exit(doMain(os.Stdout, os.Stderr))
}

// doMain is separated out for the purpose of unit testing.
func doMain(stdOut, stdErr io.Writer) int {
	flag.CommandLine.SetOutput(stdErr)

	var help bool
	flag.BoolVar(&help, "h", false, "Prints usage.")
	flag.Parse()

	if help || flag.NArg() == 0 {
		printUsage(stdErr)
		return 0
	}

	switch subCmd := flag.Arg(0); subCmd {
	case "translate":
		return doTranslate(flag.Args()[1:], stdOut, stdErr)
	default:
		fmt.Fprintln(stdErr, "invalid command:", subCmd)
		printUsage(stdErr)
		return 1
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "wasm2ssa translate <path.wasm> <funcIndex>")
	fmt.Fprintln(w, "    Decodes funcIndex from path.wasm and prints its translated SSA IR.")
}

func doTranslate(args []string, stdOut, stdErr io.Writer) int {
	flags := flag.NewFlagSet("translate", flag.ContinueOnError)
	flags.SetOutput(stdErr)
	returnAtEnd := flags.Bool("return-at-end", true, "Emit an explicit return at the end of the function body.")
	trace := flags.Bool("trace", false, "Print one line per translated operator.")
	if err := flags.Parse(args); err != nil {
		return 1
	}
	if flags.NArg() != 2 {
		fmt.Fprintln(stdErr, "expected <path.wasm> <funcIndex>")
		return 1
	}
	path := flags.Arg(0)
	funcIndex, err := strconv.Atoi(flags.Arg(1))
	if err != nil {
		fmt.Fprintln(stdErr, "invalid funcIndex:", err)
		return 1
	}

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(stdErr, "reading", path, "failed:", err)
		return 1
	}
	mod, err := decoder.ParseModule(data)
	if err != nil {
		fmt.Fprintln(stdErr, "decoding module failed:", err)
		return 1
	}
	localTypes, ops, err := mod.DecodeFunction(funcIndex)
	if err != nil {
		fmt.Fprintln(stdErr, "decoding function body failed:", err)
		return 1
	}

	env, err := refenv.New(mod, *returnAtEnd)
	if err != nil {
		fmt.Fprintln(stdErr, "building environment failed:", err)
		return 1
	}
	translate.TraceEnabled = *trace

	b := ir.NewBuilder()
	b.Init(mod.Functions[funcIndex].Sig)
	tr := translate.NewTranslator()
	tr.Init(b, env, mod.Functions[funcIndex].Sig, localTypes)
	if err := tr.TranslateSafely(ops); err != nil {
		fmt.Fprintln(stdErr, "translation failed:", err)
		return 1
	}
	fmt.Fprintln(stdOut, b.Format())
	return 0
}
