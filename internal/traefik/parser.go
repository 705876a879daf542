// Package traefik extracts routable hostnames from Traefik dynamic
// configuration files.
package traefik

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/net/publicsuffix"
	"gopkg.in/yaml.v3"
)

var (
	hostCallPattern      = regexp.MustCompile("(HostSNI|Host)\\(([^)]*)\\)")
	backtickValuePattern = regexp.MustCompile("`([^`]+)`")
)

type dynamicConfig struct {
	HTTP *routerSection `yaml:"http"`
	TCP  *routerSection `yaml:"tcp"`
}

type routerSection struct {
	Routers map[string]router `yaml:"routers"`
}

type router struct {
	Rule string `yaml:"rule"`
}

// ExtractHostnames reads a Traefik dynamic config file, or recursively every
// *.yml/*.yaml under a directory, and returns the set of literal hostnames
// referenced by Host() and HostSNI() rule matchers. Hostnames are lowercased
// and FQDN-validated; wildcard hosts, HostRegexp rules, bare public suffixes
// and malformed files are dropped with a warning rather than failing the call.
func ExtractHostnames(source string, log *slog.Logger) (map[string]struct{}, error) {
	files, err := listYAMLFiles(source)
	if err != nil {
		return nil, err
	}

	hostnames := make(map[string]struct{})
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Warn("failed reading config file", "path", path, "error", err)
			continue
		}
		parseDocuments(data, path, hostnames, log)
	}
	return hostnames, nil
}

func listYAMLFiles(source string) ([]string, error) {
	info, err := os.Stat(source)
	if err != nil {
		return nil, fmt.Errorf("stat source %s: %w", source, err)
	}
	if !info.IsDir() {
		return []string{source}, nil
	}

	var files []string
	err = filepath.WalkDir(source, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yml", ".yaml":
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk source %s: %w", source, err)
	}
	sort.Strings(files)
	return files, nil
}

func parseDocuments(data []byte, path string, hostnames map[string]struct{}, log *slog.Logger) {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	for {
		var doc dynamicConfig
		err := decoder.Decode(&doc)
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			// A type error still yields whatever decoded cleanly; anything
			// else poisons the stream for the remaining documents.
			var typeErr *yaml.TypeError
			if !errors.As(err, &typeErr) {
				log.Warn("failed parsing yaml", "path", path, "error", err)
				return
			}
			log.Warn("partially parsed yaml document", "path", path, "error", err)
		}
		if doc.HTTP != nil {
			extractFromRouters(doc.HTTP.Routers, fmt.Sprintf("%s:http.routers", path), hostnames, log)
		}
		if doc.TCP != nil {
			extractFromRouters(doc.TCP.Routers, fmt.Sprintf("%s:tcp.routers", path), hostnames, log)
		}
	}
}

func extractFromRouters(routers map[string]router, prefix string, hostnames map[string]struct{}, log *slog.Logger) {
	for name, r := range routers {
		if r.Rule == "" {
			continue
		}
		extractFromRule(r.Rule, fmt.Sprintf("%s.%s", prefix, name), hostnames, log)
	}
}

func extractFromRule(rule, context string, hostnames map[string]struct{}, log *slog.Logger) {
	if strings.Contains(rule, "HostRegexp(") {
		log.Warn("skipping unsupported HostRegexp rule", "context", context, "rule", rule)
		return
	}

	found := false
	for _, match := range hostCallPattern.FindAllStringSubmatch(rule, -1) {
		matcher, rawArgs := match[1], match[2]
		quoted := backtickValuePattern.FindAllStringSubmatch(rawArgs, -1)
		if len(quoted) == 0 {
			log.Warn("skipping malformed host rule", "matcher", matcher, "context", context, "rule", rule)
			continue
		}
		for _, value := range quoted {
			host := strings.ToLower(strings.TrimSpace(value[1]))
			if strings.Contains(host, "*") {
				log.Warn("skipping wildcard host", "context", context, "host", value[1])
				continue
			}
			if !isFQDN(host) {
				log.Warn("skipping non-literal host", "context", context, "host", value[1])
				continue
			}
			if _, err := publicsuffix.EffectiveTLDPlusOne(host); err != nil {
				log.Warn("skipping host without registrable domain", "context", context, "host", host)
				continue
			}
			hostnames[host] = struct{}{}
			found = true
		}
	}

	if !found && (strings.Contains(rule, "Host(") || strings.Contains(rule, "HostSNI(")) {
		log.Warn("no literal hosts extracted from rule", "context", context, "rule", rule)
	}
}

// isFQDN reports whether host is a lowercase fully-qualified domain name:
// at most 253 bytes, at least two labels, each label 1-63 characters of
// [a-z0-9-] with no leading or trailing hyphen.
func isFQDN(host string) bool {
	if len(host) == 0 || len(host) > 253 {
		return false
	}
	labels := strings.Split(host, ".")
	if len(labels) < 2 {
		return false
	}
	for _, label := range labels {
		if len(label) == 0 || len(label) > 63 {
			return false
		}
		if label[0] == '-' || label[len(label)-1] == '-' {
			return false
		}
		for i := 0; i < len(label); i++ {
			c := label[i]
			if c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '-' {
				continue
			}
			return false
		}
	}
	return true
}
