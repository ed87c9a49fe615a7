package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/stoneface86/trackerboy-sub003/compiler"
	"github.com/stoneface86/trackerboy-sub003/format"
	"github.com/stoneface86/trackerboy-sub003/tracker"
	"github.com/stoneface86/trackerboy-sub003/version"
)

func filterExtensions(input map[string]string, extensions []string) map[string]string {
	ret := map[string]string{}
	for _, ext := range extensions {
		extWithDot := "." + ext
		if inputVal, ok := input[extWithDot]; ok {
			ret[extWithDot] = inputVal
		}
	}
	return ret
}

func main() {
	safe := flag.Bool("n", false, "Never overwrite files; if file already exists and would be overwritten, give an error.")
	list := flag.Bool("l", false, "Do not write files; just list files that would change instead.")
	stdout := flag.Bool("s", false, "Do not write files; write to standard output instead.")
	help := flag.Bool("h", false, "Show help.")
	tbmOut := flag.Bool("b", false, "Output the module as .tbm file instead of compiling.")
	yamlOut := flag.Bool("y", false, "Output the module as .yml file instead of compiling.")
	tmplDir := flag.String("t", "", "When compiling, use the templates in this directory instead of the standard templates.")
	prefix := flag.String("prefix", compiler.DefaultPrefix, "Prefix of every exported label.")
	outPath := flag.String("o", "", "Directory or filename where to write compiled code. Extension is ignored. Directory and its parents are created if needed. By default, everything is placed in the same directory where the original module file is.")
	extensionsOut := flag.String("e", "", "Output only the compiled files with these comma separated extensions. For example: h,asm")
	versionFlag := flag.Bool("v", false, "Print version.")
	flag.Usage = printUsage
	flag.Parse()
	if *versionFlag {
		fmt.Println(version.VersionOrHash)
		os.Exit(0)
	}
	if flag.NArg() == 0 || *help {
		flag.Usage()
		os.Exit(0)
	}
	compile := !*tbmOut && !*yamlOut // if the user gives nothing to output, then the default behaviour is to compile the file
	var comp *compiler.Compiler
	if compile {
		comp = compiler.New()
		if *tmplDir != "" {
			var err error
			comp, err = compiler.NewFromTemplates(*tmplDir)
			if err != nil {
				fmt.Fprintf(os.Stderr, "error creating compiler: %v\n", err)
				os.Exit(1)
			}
		}
		comp.Prefix = *prefix
	}
	output := func(filename string, extension string, contents []byte) error {
		if *stdout {
			fmt.Print(string(contents))
			return nil
		}
		_, name := filepath.Split(filename)
		dir, _ := filepath.Split(filename)
		if *outPath != "" {
			// check if it's an already existing directory and the user just forgot trailing slash
			if info, err := os.Stat(*outPath); err == nil && info.IsDir() {
				dir = *outPath
			} else {
				outdir, outname := filepath.Split(*outPath)
				if outdir != "" {
					dir = outdir
				}
				if outname != "" {
					name = outname
				}
			}
		}
		if dir == "" {
			var err error
			dir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("could not get working directory, specify the output directory explicitly: %v", err)
			}
		}
		name = strings.TrimSuffix(name, filepath.Ext(name)) + extension
		f := filepath.Join(dir, name)
		original, err := os.ReadFile(f)
		if err == nil {
			if bytes.Equal(original, contents) {
				return nil // no need to update
			}
			if !*list && *safe {
				return fmt.Errorf("file %v would be overwritten by compiler", f)
			}
		}
		if *list {
			fmt.Println(f)
			return nil
		}
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return fmt.Errorf("could not create output directory %v: %v", dir, err)
		}
		if err := os.WriteFile(f, contents, 0644); err != nil {
			return fmt.Errorf("could not write file %v: %v", f, err)
		}
		return nil
	}
	process := func(filename string) error {
		module, err := tracker.ReadFile(filename)
		if err != nil {
			return fmt.Errorf("could not read file %v: %v", filename, err)
		}
		if compile {
			compiled, err := comp.Module(module)
			if err != nil {
				return fmt.Errorf("compiling module failed: %v", err)
			}
			if len(*extensionsOut) > 0 {
				compiled = filterExtensions(compiled, strings.Split(*extensionsOut, ","))
			}
			for extension, code := range compiled {
				if err := output(filename, extension, []byte(code)); err != nil {
					return fmt.Errorf("error outputting %v file: %v", extension, err)
				}
			}
		}
		if *tbmOut {
			var buf bytes.Buffer
			if err := format.Write(&buf, module); err != nil {
				return fmt.Errorf("could not write the module as tbm file: %v", err)
			}
			if err := output(filename, ".tbm", buf.Bytes()); err != nil {
				return fmt.Errorf("error outputting tbm file: %v", err)
			}
		}
		if *yamlOut {
			var buf bytes.Buffer
			if err := tracker.WriteModule(&buf, module); err != nil {
				return fmt.Errorf("could not marshal the module as yaml file: %v", err)
			}
			if err := output(filename, ".yml", buf.Bytes()); err != nil {
				return fmt.Errorf("error outputting yaml file: %v", err)
			}
		}
		return nil
	}
	retval := 0
	for _, param := range flag.Args() {
		if info, err := os.Stat(param); err == nil && info.IsDir() {
			tbmfiles, err := filepath.Glob(filepath.Join(param, "*.tbm"))
			if err != nil {
				fmt.Fprintf(os.Stderr, "could not glob the path %v for tbm files: %v\n", param, err)
				retval = 1
				continue
			}
			ymlfiles, err := filepath.Glob(filepath.Join(param, "*.yml"))
			if err != nil {
				fmt.Fprintf(os.Stderr, "could not glob the path %v for yml files: %v\n", param, err)
				retval = 1
				continue
			}
			files := append(tbmfiles, ymlfiles...)
			for _, file := range files {
				err := process(file)
				if err != nil {
					fmt.Fprintf(os.Stderr, "could not process file %v: %v\n", file, err)
					retval = 1
				}
			}
		} else {
			err := process(param)
			if err != nil {
				fmt.Fprintf(os.Stderr, "could not process file %v: %v\n", param, err)
				retval = 1
			}
		}
	}
	os.Exit(retval)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Trackerboy compiler. Input .tbm or .yml modules, outputs data tables (e.g. .asm and .h files).\nUsage: %s [flags] [path ...]\n", os.Args[0])
	flag.PrintDefaults()
}
