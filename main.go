// tmi-decode читает строки TMI из stdin и печатает разобранные сообщения
// в stdout по одному JSON-объекту на строку. Предупреждения парсера идут в stderr.
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"tmi-chatter/logx"
	"tmi-chatter/tmi"
)

type decoded struct {
	Command string      `json:"command"`
	Source  string      `json:"source,omitempty"`
	Target  string      `json:"target,omitempty"`
	Params  string      `json:"params,omitempty"`
	Message tmi.Message `json:"message,omitempty"`
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		level  string
		format string
		typed  bool
	)

	cmd := &cobra.Command{
		Use:          "tmi-decode",
		Short:        "Decode Twitch TMI lines from stdin into JSON",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log := logx.NewWithWriter(cmd.ErrOrStderr(), format)
			logx.Configure(level)
			return decode(cmd.InOrStdin(), cmd.OutOrStdout(), tmi.NewParser(log), typed)
		},
	}

	cmd.Flags().StringVar(&level, "log-level", "warn", "Log level for parser warnings")
	cmd.Flags().StringVar(&format, "log-format", "text", "Log format: text or json")
	cmd.Flags().BoolVar(&typed, "typed-only", false, "Print only lines that produce a typed message")

	return cmd
}

func decode(r io.Reader, w io.Writer, p *tmi.Parser, typedOnly bool) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	enc := json.NewEncoder(w)

	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "" {
			continue
		}

		b, msg := p.Parse(line)
		if typedOnly && msg == nil {
			continue
		}
		if err := enc.Encode(decoded{
			Command: b.Command.String(),
			Source:  b.Source,
			Target:  b.Target,
			Params:  b.Params,
			Message: msg,
		}); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
	}
	return sc.Err()
}
