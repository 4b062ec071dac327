package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/jward/phpreflect/internal/errs"
	"github.com/jward/phpreflect/internal/view"
)

// validFormats lists accepted values for --format.
var validFormats = []string{"json", "yaml", "text"}

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, ", "))
}

func (a *app) outputResult(result CLIResult) error {
	switch a.format {
	case "text":
		return outputResultText(a.out, result)
	case "yaml":
		enc := yaml.NewEncoder(a.out)
		enc.SetIndent(2)
		if err := enc.Encode(result); err != nil {
			return err
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
}

// outputError writes an error in the selected format and returns it so RunE
// can propagate it to Cobra. Structured formats get a CLIResult envelope on
// stdout; text goes to stderr.
func (a *app) outputError(command string, err error) error {
	a.errorHandled = true
	if a.format == "text" {
		fmt.Fprintf(a.errOut, "Error: %s\n", err)
		return err
	}
	_ = a.outputResult(CLIResult{
		Command: command,
		Error:   err.Error(),
		Code:    string(errs.CodeOf(err)),
	})
	return err
}

// outputResultText dispatches to the text formatter for the result type.
func outputResultText(w io.Writer, result CLIResult) error {
	switch v := result.Results.(type) {
	case view.Class:
		formatClassText(w, v)
	case view.Function:
		formatFunctionText(w, v)
	case view.Constant:
		formatConstantText(w, v)
	case CLIInvalidation:
		for _, p := range v.Paths {
			fmt.Fprintf(w, "invalidated %s\n", p)
		}
	case nil:
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}
	return nil
}

func formatClassText(w io.Writer, c view.Class) {
	fmt.Fprintf(w, "%s %s\n", c.Kind, c.Name)
	if c.Location.File != "" {
		fmt.Fprintf(w, "File: %s:%d\n", c.Location.File, c.Location.StartLine)
	} else if c.Location.Extension != "" {
		fmt.Fprintf(w, "Extension: %s\n", c.Location.Extension)
	}
	if c.Deprecated != "" {
		fmt.Fprintf(w, "Deprecated: %s\n", c.Deprecated)
	}
	if len(c.Parents) > 0 {
		fmt.Fprintf(w, "Parents: %s\n", ancestorNames(c.Parents))
	}
	if len(c.Interfaces) > 0 {
		fmt.Fprintf(w, "Interfaces: %s\n", ancestorNames(c.Interfaces))
	}

	if len(c.Constants) > 0 {
		fmt.Fprintln(w)
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "CONSTANT\tVISIBILITY\tTYPE\tVALUE")
		for _, k := range c.Constants {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", k.Name, k.Visibility, k.Type.Resolved, formatValue(k.Value))
		}
		tw.Flush()
	}

	if len(c.Properties) > 0 {
		fmt.Fprintln(w)
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "PROPERTY\tVISIBILITY\tTYPE\tCLASS\tDEFAULT")
		for _, p := range c.Properties {
			fmt.Fprintf(tw, "$%s\t%s\t%s\t%s\t%s\n", p.Name, p.Visibility, p.Type.Resolved, p.Class, formatValue(p.Default))
		}
		tw.Flush()
	}

	if len(c.Methods) > 0 {
		fmt.Fprintln(w)
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "METHOD\tVISIBILITY\tRETURNS\tCLASS")
		for _, m := range c.Methods {
			fmt.Fprintf(tw, "%s(%s)\t%s\t%s\t%s\n", m.Name, parameterList(m.Parameters), m.Visibility, m.ReturnType.Resolved, m.Class)
		}
		tw.Flush()
	}
}

func formatFunctionText(w io.Writer, f view.Function) {
	fmt.Fprintf(w, "function %s(%s): %s\n", f.Name, parameterList(f.Parameters), f.ReturnType.Resolved)
	if f.Location != nil && f.Location.File != "" {
		fmt.Fprintf(w, "File: %s:%d\n", f.Location.File, f.Location.StartLine)
	}
	if f.Deprecated != "" {
		fmt.Fprintf(w, "Deprecated: %s\n", f.Deprecated)
	}
	for _, p := range f.Parameters {
		if p.Default != nil {
			fmt.Fprintf(w, "  $%s = %s\n", p.Name, formatValue(p.Default))
		}
	}
}

func formatConstantText(w io.Writer, k view.Constant) {
	name := k.Name
	if k.Class != "" {
		name = k.Class + "::" + k.Name
	}
	fmt.Fprintf(w, "const %s: %s = %s\n", name, k.Type.Resolved, formatValue(k.Value))
	if k.Location != nil {
		if k.Location.File != "" {
			fmt.Fprintf(w, "File: %s:%d\n", k.Location.File, k.Location.StartLine)
		} else if k.Location.Extension != "" {
			fmt.Fprintf(w, "Extension: %s\n", k.Location.Extension)
		}
	}
}

func ancestorNames(as []view.Ancestor) string {
	names := make([]string, len(as))
	for i, a := range as {
		names[i] = a.Name
	}
	return strings.Join(names, ", ")
}

func parameterList(params []view.Parameter) string {
	parts := make([]string, len(params))
	for i, p := range params {
		s := "$" + p.Name
		if p.Variadic {
			s = "..." + s
		}
		if p.ByReference {
			s = "&" + s
		}
		if p.Type.Resolved != "" && p.Type.Resolved != "mixed" {
			s = p.Type.Resolved + " " + s
		}
		parts[i] = s
	}
	return strings.Join(parts, ", ")
}

// formatValue renders an evaluated value as JSON, or "-" when it was not
// evaluated.
func formatValue(v *view.Value) string {
	switch {
	case v == nil:
		return "-"
	case v.Error != "":
		return "error: " + v.Error
	}
	data, err := json.Marshal(v.Value)
	if err != nil {
		return fmt.Sprint(v.Value)
	}
	return string(data)
}
