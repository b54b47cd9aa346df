package main

import (
	"fmt"
	"os"

	"github.com/yoockh/voicememo/internal/utils"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitFailed  = 1 // processing failed
	ExitError   = 2 // configuration or usage error
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		switch utils.CodeOf(err) {
		case utils.CodeInvalidArgument, utils.CodeMissingCredential, utils.CodeInternal:
			os.Exit(ExitError)
		default:
			os.Exit(ExitFailed)
		}
	}
}
