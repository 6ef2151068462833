package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	rpcconform "github.com/openrpckit/rpcconform"
	"github.com/openrpckit/rpcconform/i18n"
	"github.com/openrpckit/rpcconform/jsonrpc"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	sub := os.Args[1]
	switch sub {
	case "check":
		checkCmd(os.Args[2:])
	case "live":
		liveCmd(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "rpcconform CLI\n\nUsage:\n  rpcconform check -doc api.json [-lang en|ja] [-concurrency N]\n  rpcconform live -doc api.json -url http://host/rpc [-exact] [-recurse-json] [-timeout 5s] [-serialize]\n\nNotes:\n  - check validates embedded examples against their declared schemas.\n  - live replays examples over HTTP JSON-RPC and verifies the responses.")
}

func checkCmd(args []string) {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	var docPath, lang string
	var concurrency int
	fs.StringVar(&docPath, "doc", "", "path to the OpenRPC document (.json/.yaml)")
	fs.StringVar(&lang, "lang", "en", "finding message language (en/ja)")
	fs.IntVar(&concurrency, "concurrency", 0, "worker pool size (0 = default)")
	_ = fs.Parse(args)
	if docPath == "" {
		fs.Usage()
		os.Exit(2)
	}
	i18n.SetLanguage(lang)

	doc := loadDocument(docPath)
	rep, err := rpcconform.CheckExamples(context.Background(), doc, rpcconform.RunOpt{Concurrency: concurrency})
	if err != nil {
		fatalf("check: %v", err)
	}
	emit(rep)
}

func liveCmd(args []string) {
	fs := flag.NewFlagSet("live", flag.ExitOnError)
	var docPath, url, lang string
	var exact, recurse, serialize bool
	var timeout time.Duration
	var concurrency int
	fs.StringVar(&docPath, "doc", "", "path to the OpenRPC document (.json/.yaml)")
	fs.StringVar(&url, "url", "", "JSON-RPC HTTP endpoint")
	fs.StringVar(&lang, "lang", "en", "finding message language (en/ja)")
	fs.BoolVar(&exact, "exact", false, "require actual results to deep-equal the expected example results")
	fs.BoolVar(&recurse, "recurse-json", false, "parse stringified-JSON results before exact comparison")
	fs.BoolVar(&serialize, "serialize", false, "serialize transport calls")
	fs.DurationVar(&timeout, "timeout", 0, "per-call timeout")
	fs.IntVar(&concurrency, "concurrency", 0, "worker pool size (0 = default)")
	_ = fs.Parse(args)
	if docPath == "" || url == "" {
		fs.Usage()
		os.Exit(2)
	}
	i18n.SetLanguage(lang)

	doc := loadDocument(docPath)
	clt := jsonrpc.NewClient(url)
	rep, err := rpcconform.RunLive(context.Background(), doc, clt, rpcconform.RunOpt{
		Concurrency:            concurrency,
		ExactMatch:             exact,
		RecurseStringifiedJSON: recurse,
		CallTimeout:            timeout,
		SerializeTransport:     serialize,
	})
	if err != nil {
		fatalf("live: %v", err)
	}
	emit(rep)
}

func loadDocument(path string) *rpcconform.Document {
	data, err := os.ReadFile(path)
	if err != nil {
		fatalf("reading document: %v", err)
	}
	var doc *rpcconform.Document
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		doc, err = rpcconform.ParseDocumentYAML(data)
	default:
		doc, err = rpcconform.ParseDocument(data)
	}
	if err != nil {
		fatalf("%v", err)
	}
	return doc
}

func emit(rep *rpcconform.Report) {
	out, err := rep.JSON()
	if err != nil {
		fatalf("encoding report: %v", err)
	}
	fmt.Println(string(out))
	if rep.Summary.ExamplesPassed != rep.Summary.ExamplesTotal {
		os.Exit(1)
	}
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
