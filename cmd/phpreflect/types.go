package main

// CLIResult is the top-level envelope for every command's output.
type CLIResult struct {
	Command string `json:"command" yaml:"command"`
	Results any    `json:"results" yaml:"results"`
	Error   string `json:"error,omitempty" yaml:"error,omitempty"`
	Code    string `json:"code,omitempty" yaml:"code,omitempty"`
}

// CLIInvalidation reports one batch handled by the watch command.
type CLIInvalidation struct {
	Paths []string `json:"paths" yaml:"paths"`
}
