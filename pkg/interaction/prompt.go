// pkg/interaction/prompt.go

package interaction

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	cerr "github.com/cockroachdb/errors"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"golang.org/x/term"

	"github.com/steadyops/botstrap/pkg/shared"
	"github.com/steadyops/botstrap/pkg/strap_io"
	"go.uber.org/zap"
)

// Prompt text goes to stderr so stdout stays clean for reports and piping;
// the structured log records every prompt before it is shown.
var promptOut io.Writer = os.Stderr

var stdinReader = bufio.NewReader(os.Stdin)

// PromptInput shows a prompt with an optional default and reads one line.
// Empty input accepts the default.
func PromptInput(rc *strap_io.RuntimeContext, prompt, def string) (string, error) {
	log := otelzap.Ctx(rc.Ctx)
	log.Info("terminal prompt: " + prompt)

	if def != "" {
		fmt.Fprintf(promptOut, "%s [%s]: ", prompt, def)
	} else {
		fmt.Fprintf(promptOut, "%s: ", prompt)
	}

	line, err := stdinReader.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", cerr.Wrap(err, "read input")
	}

	value := strings.TrimSpace(line)
	if value == "" {
		return def, nil
	}
	return value, nil
}

// PromptSecret reads a value with terminal echo disabled. The default, when
// present, is shown masked and accepted by entering nothing.
func PromptSecret(rc *strap_io.RuntimeContext, prompt, def string) (string, error) {
	log := otelzap.Ctx(rc.Ctx)
	log.Info("terminal prompt: " + prompt)

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		if def != "" {
			return def, nil
		}
		return "", cerr.New("secret prompt requires a terminal")
	}

	if def != "" {
		fmt.Fprintf(promptOut, "%s [%s]: ", prompt, shared.MaskSecret(def))
	} else {
		fmt.Fprintf(promptOut, "%s: ", prompt)
	}

	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(promptOut)
	if err != nil {
		return "", cerr.Wrap(err, "read secret input")
	}

	value := strings.TrimSpace(string(raw))
	if value == "" {
		return def, nil
	}
	return value, nil
}

// PromptYesNo asks a yes/no question, accepting y/yes/n/no in any case;
// empty input takes the default. Re-asks on anything else.
func PromptYesNo(rc *strap_io.RuntimeContext, prompt string, def bool) (bool, error) {
	defHint := "y/N"
	if def {
		defHint = "Y/n"
	}

	for {
		answer, err := PromptInput(rc, fmt.Sprintf("%s (%s)", prompt, defHint), "")
		if err != nil {
			return false, err
		}

		switch strings.ToLower(answer) {
		case "":
			return def, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		fmt.Fprintln(promptOut, "Please answer y or n.")
	}
}

// PromptValidated prompts until the validator accepts the input, giving the
// operator one retry per invalid answer before failing. Never coerces.
func PromptValidated(rc *strap_io.RuntimeContext, prompt, def string, validate func(string) error) (string, error) {
	const attempts = 2

	var lastErr error
	for i := 0; i < attempts; i++ {
		value, err := PromptInput(rc, prompt, def)
		if err != nil {
			return "", err
		}
		if lastErr = validate(value); lastErr == nil {
			return value, nil
		}
		fmt.Fprintf(promptOut, "Invalid value: %v\n", lastErr)
		otelzap.Ctx(rc.Ctx).Warn("invalid prompt input",
			zap.String("prompt", prompt), zap.Error(lastErr))
	}

	return "", cerr.Wrap(lastErr, "input validation failed")
}
