package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/lexroom/statext/internal/fetch"
	"github.com/lexroom/statext/internal/interpolate"
	"github.com/lexroom/statext/internal/tokenizer"
	"github.com/lexroom/statext/internal/uscode"
)

var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "statext",
		Short: "Statute text tokenizer",
		Long: `Statext splits enumerated statute text into a tree of marker-addressed
fragments and reassembles it byte for byte.

It works on plain section text (stdin or files), US Code XML exports,
and the NY legislation API.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(tokenizeCmd())
	rootCmd.AddCommand(expandCmd())
	rootCmd.AddCommand(verifyCmd())
	rootCmd.AddCommand(extractCmd())
	rootCmd.AddCommand(fetchCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// readInput reads the named file, or stdin when no file is given.
func readInput(args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(args[0])
}

func tokenizeCmd() *cobra.Command {
	var scope string

	cmd := &cobra.Command{
		Use:   "tokenize [file]",
		Short: "Tokenize section text into a fragment tree",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(args)
			if err != nil {
				return err
			}

			res := tokenizer.New(nil).TokenizeScoped(string(text), scope)
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}

	cmd.Flags().StringVar(&scope, "scope", "", "namespace prefix for generated tokens")
	return cmd
}

func expandCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "expand [file]",
		Short: "Reassemble section text from tokenize output",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(args)
			if err != nil {
				return err
			}

			var res tokenizer.Result
			if err := json.Unmarshal(data, &res); err != nil {
				return fmt.Errorf("parse tokenize output: %w", err)
			}

			text, err := interpolate.ExpandFully(res.TokenizedText, res.Elements)
			if err != nil {
				return err
			}
			fmt.Println(text)
			return nil
		},
	}
}

func verifyCmd() *cobra.Command {
	var noColor bool

	cmd := &cobra.Command{
		Use:   "verify <file>...",
		Short: "Check the tokenize/expand round trip on section files",
		Long: `Verify tokenizes each file, expands the result, and compares it to the
normalized input. A mismatch means the file exercises a case the
tokenizer gets wrong and should be reported.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if noColor {
				color.NoColor = true
			}
			green := color.New(color.FgGreen)
			red := color.New(color.FgRed)

			tok := tokenizer.New(nil)
			failed := 0
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return err
				}

				want := tokenizer.Normalize(string(data))
				res := tok.Tokenize(string(data))
				got, err := interpolate.ExpandFully(res.TokenizedText, res.Elements)

				switch {
				case err != nil:
					red.Fprintf(os.Stdout, "FAIL %s: %v\n", path, err)
					failed++
				case got != want:
					red.Fprintf(os.Stdout, "FAIL %s: expansion differs from normalized input\n", path)
					failed++
				default:
					green.Fprintf(os.Stdout, "PASS %s\n", path)
				}
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d files failed round trip", failed, len(args))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored output")
	return cmd
}

func extractCmd() *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "extract [uslm-file]",
		Short: "Extract section records from US Code XML as NDJSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = os.Stdin
			if len(args) > 0 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			var out io.Writer = os.Stdout
			if outPath != "" {
				f, err := os.Create(outPath)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}

			n, err := uscode.Extract(in, out)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "extracted %d sections\n", n)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "output", "o", "", "write NDJSON here instead of stdout")
	return cmd
}

func fetchCmd() *cobra.Command {
	var (
		baseURL     string
		apiKey      string
		sourcesPath string
		lawID       string
		interval    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch laws from the legislation API and tokenize them",
		Long: `Fetch pulls every section of the laws named in the sources file (or a
single --law), tokenizes each one, and writes one NDJSON record per
section to stdout. The record carries the law ID, location ID, heading,
and the full tokenize result.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if apiKey == "" {
				apiKey = os.Getenv("LEGISLATION_API_KEY")
			}
			if apiKey == "" {
				return fmt.Errorf("an API key is required (--key or LEGISLATION_API_KEY)")
			}

			var sources []fetch.Source
			if lawID != "" {
				sources = []fetch.Source{{LawID: lawID}}
			} else {
				var err error
				sources, err = fetch.LoadSources(sourcesPath)
				if err != nil {
					return err
				}
			}

			client, err := fetch.NewClient(baseURL, apiKey, fetch.Options{RequestInterval: interval})
			if err != nil {
				return err
			}
			defer client.Close()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			tok := tokenizer.New(nil)
			enc := json.NewEncoder(os.Stdout)
			for _, src := range sources {
				if err := fetchLaw(ctx, client, tok, enc, src); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&baseURL, "url", "https://legislation.nysenate.gov", "legislation API base URL")
	cmd.Flags().StringVar(&apiKey, "key", "", "legislation API key")
	cmd.Flags().StringVar(&sourcesPath, "sources", "sources.yaml", "YAML crawl list")
	cmd.Flags().StringVar(&lawID, "law", "", "fetch a single law instead of the sources file")
	cmd.Flags().DurationVar(&interval, "interval", fetch.DefaultRequestInterval, "minimum gap between API requests")
	return cmd
}

type fetchRecord struct {
	LawID      string           `json:"law_id"`
	LocationID string           `json:"location_id"`
	Heading    string           `json:"heading,omitempty"`
	Result     tokenizer.Result `json:"result"`
}

func fetchLaw(ctx context.Context, client *fetch.Client, tok *tokenizer.Tokenizer, enc *json.Encoder, src fetch.Source) error {
	locations, err := client.ListLocations(ctx, src.LawID)
	if err != nil {
		return fmt.Errorf("list %s: %w", src.LawID, err)
	}

	for _, loc := range locations {
		sec, err := client.GetSection(ctx, src.LawID, loc)
		if err != nil {
			fmt.Fprintf(os.Stderr, "skip %s/%s: %v\n", src.LawID, loc, err)
			continue
		}

		scope := src.TokenScope() + "." + loc
		rec := fetchRecord{
			LawID:      src.LawID,
			LocationID: loc,
			Heading:    sec.Title,
			Result:     tok.TokenizeScoped(sec.Text, scope),
		}
		if err := enc.Encode(rec); err != nil {
			return err
		}
	}
	return nil
}
