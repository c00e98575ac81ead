package main

import (
	"fmt"
	"io"

	flag "github.com/spf13/pflag"
)

// publishFlags holds all flags for the publish command.
type publishFlags struct {
	title      string
	token      string
	config     string
	host       string
	workers    int
	sizeLimit  int // megabytes
	noCompress bool
	noDedupe   bool
	quiet      bool
	verbose    bool
	version    bool
}

// parsePublishFlags parses command-line flags and returns positional args.
func parsePublishFlags(args []string) (*publishFlags, []string, *flag.FlagSet, error) {
	fs := flag.NewFlagSet("telepress", flag.ContinueOnError)
	f := &publishFlags{}

	fs.StringVarP(&f.title, "title", "t", "", "page title (\"\" = derive from file name)")
	fs.StringVar(&f.token, "token", "", "page service access token")
	fs.StringVarP(&f.config, "config", "c", "", "config file path")
	fs.StringVar(&f.host, "host", "", "image host: telegraph, imgbb, imgur, smms, r2, s3, custom, rclone")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel image uploads (0 = default)")
	fs.IntVar(&f.sizeLimit, "size-limit", 0, "max image size in MB before compression (0 = host default)")
	fs.BoolVar(&f.noCompress, "no-compress", false, "never re-encode oversized images")
	fs.BoolVar(&f.noDedupe, "no-dedupe", false, "republish even if already published")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only print the page URL")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "log pipeline details to stderr")
	fs.BoolVar(&f.version, "version", false, "print version and exit")

	fs.Usage = func() {}

	if err := fs.Parse(args); err != nil {
		return nil, nil, fs, err
	}
	return f, fs.Args(), fs, nil
}

// printUsage writes the command synopsis and flag help.
func printUsage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintln(w, "Usage: telepress [flags] <file>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Publish a markdown, text, HTML, image, or zip file as web pages.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprint(w, fs.FlagUsages())
}
