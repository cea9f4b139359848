package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/npillmayer/chws/builder"
	"github.com/npillmayer/chws/core"
	"github.com/npillmayer/chws/font"
	"github.com/npillmayer/chws/spacing"
	"github.com/npillmayer/schuko/schukonf/testconfig"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/npillmayer/schuko/tracing/trace2go"
	"github.com/pterm/pterm"
)

// tracer traces with key 'chws.build'
func tracer() tracing.Trace {
	return tracing.Select("chws.build")
}

func main() {
	initDisplay()

	// command line flags
	tlevel := flag.String("trace", "Info", "Trace level [Debug|Info|Error]")
	outputDir := flag.String("o", "", "Output directory (default: overwrite input files)")
	language := flag.String("l", "", "OpenType language system tag(s), e.g. JAN or JAN,,ZHS")
	indices := flag.String("i", "", "Face indices of a collection, e.g. 0,2")
	suffix := flag.String("s", "", "Suffix to add to output file stems")
	glyphOut := flag.String("g", "", "File to dump the glyph classification to")
	test := flag.Bool("test", true, "Verify built fonts by re-shaping")
	colonMiddle := flag.Bool("colon-middle", false, "Force colon/semicolon to be centered")
	noto := flag.Bool("noto", false, "Noto CJK mode: derive languages from family names")
	flag.Parse()

	// set up logging
	tracing.RegisterTraceAdapter("go", gologadapter.GetAdapter(), false)
	conf := testconfig.Conf{
		"tracing.adapter":    "go",
		"trace.chws.ot":      *tlevel,
		"trace.chws.fonts":   *tlevel,
		"trace.chws.shape":   *tlevel,
		"trace.chws.spacing": *tlevel,
		"trace.chws.build":   *tlevel,
	}
	if err := trace2go.ConfigureRoot(conf, "trace", trace2go.ReplaceTracers(true)); err != nil {
		fmt.Printf("error configuring tracing")
		os.Exit(1)
	}
	tracing.SetTraceSelector(trace2go.Selector())

	if flag.NArg() == 0 {
		pterm.Error.Println("no font files given")
		flag.Usage()
		os.Exit(2)
	}
	if *noto && (*language != "" || *indices != "") {
		pterm.Error.Println("-noto derives languages itself; -l and -i do not apply")
		os.Exit(2)
	}
	expand := builder.ExpandPaths
	if *noto {
		expand = builder.ExpandNotoPaths
	}
	paths, err := expand(flag.Args())
	if err != nil {
		pterm.Error.Println(core.UserMessage(err))
		os.Exit(3)
	}
	config := spacing.DefaultConfig()
	if *colonMiddle {
		t := true
		config.ColonSemicolonMiddle = &t
	}
	failed := false
	for _, path := range paths {
		if err := buildFont(path, config, *outputDir, *language, *indices, *suffix,
			*glyphOut, *test, *noto); err != nil {
			pterm.Error.Printfln("%s: %s", path, core.UserMessage(err))
			failed = true
		}
	}
	if failed {
		os.Exit(4)
	}
}

func buildFont(path string, config *spacing.Config, outputDir, language, indices,
	suffix, glyphOut string, test, noto bool) error {
	//
	f, err := font.Load(path)
	if err != nil {
		return err
	}
	b := builder.NewBuilder(f, config)
	if noto {
		err = b.ApplyNotoLanguages()
	} else {
		err = b.ApplyLanguages(language, indices)
	}
	if err != nil {
		return err
	}
	if err := b.Build(); err != nil {
		return err
	}
	if !b.HasSpacings() {
		pterm.Info.Printfln("%s: nothing to add", path)
		return nil
	}
	if test {
		if err := b.Test(); err != nil {
			return err
		}
		tracer().Infof("%s: verified", path)
	}
	outputPath, err := b.Save(outputDir, suffix)
	if err != nil {
		return err
	}
	pterm.Info.Printfln("%s: wrote %s", path, outputPath)
	if glyphOut != "" {
		w, err := os.Create(glyphOut)
		if err != nil {
			return core.WrapError(err, core.EINTERNAL, "cannot create glyph file %s", glyphOut)
		}
		defer w.Close()
		if err := b.SaveGlyphs(w); err != nil {
			return err
		}
	}
	return nil
}

// We use pterm for moderately fancy output.
func initDisplay() {
	pterm.EnableDebugMessages()
	pterm.Info.Prefix = pterm.Prefix{
		Text:  " !  ",
		Style: pterm.NewStyle(pterm.BgCyan, pterm.FgBlack),
	}
	pterm.Error.Prefix = pterm.Prefix{
		Text:  " Error",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}
}
