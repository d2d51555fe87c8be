// Command certgen writes a development CA and a server certificate for the
// dev backend. Point the server at server.crt/server.key and the client at
// ca.crt with -ca.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/vidyasetu/vidyasetu/internal/certgen"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "certgen:", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("certgen", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	dir := fs.String("dir", "certs", "output directory")
	hosts := fs.String("hosts", "localhost,127.0.0.1", "comma separated DNS names and IPs for the server certificate")
	if err := fs.Parse(args); err != nil {
		return err
	}

	list := splitHosts(*hosts)
	if len(list) == 0 {
		return fmt.Errorf("no hosts given")
	}
	files, err := certgen.WriteDevCertificates(*dir, list)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "CA certificate:     %s\n", files.CACert)
	fmt.Fprintf(out, "server certificate: %s\n", files.ServerCert)
	fmt.Fprintf(out, "server key:         %s\n", files.ServerKey)
	return nil
}

func splitHosts(s string) []string {
	var hosts []string
	for _, h := range strings.Split(s, ",") {
		if h = strings.TrimSpace(h); h != "" {
			hosts = append(hosts, h)
		}
	}
	return hosts
}
