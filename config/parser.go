package config

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/portico/portico/proxy"
)

// Binding describes one proxy route read from a configuration file.
type Binding struct {
	Methods []proxy.Method
	Path    string
	Target  string
	Options proxy.RouteOptions
}

// partialBinding tracks which one-shot directives have been seen for the
// route currently being parsed.
type partialBinding struct {
	binding     Binding
	hasMethods  bool
	hasMode     bool
	hasRedirect bool
}

// Parse reads a configuration file from the given reader, and returns the
// route bindings it contains, in file order.
func Parse(reader io.Reader) ([]Binding, error) {
	var bindings []Binding
	var current *partialBinding

	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		directive, args, _ := strings.Cut(line, " ")
		args = strings.TrimSpace(args)

		switch strings.ToLower(directive) {
		case "route":
			if args == "" {
				return nil, fmt.Errorf("no path specified for route")
			}
			if !strings.HasPrefix(args, "/") {
				return nil, fmt.Errorf("route path must start with /: %s", args)
			}
			if current != nil {
				flushed, err := current.flush()
				if err != nil {
					return nil, err
				}
				bindings = append(bindings, flushed)
			}
			current = &partialBinding{binding: Binding{Path: args}}
		case "target":
			if current == nil {
				return nil, fmt.Errorf("target without route: %s", line)
			}
			if current.binding.Target != "" {
				return nil, fmt.Errorf("route %s has multiple targets", current.binding.Path)
			}
			if args == "" {
				return nil, fmt.Errorf("no URL specified for target in route %s", current.binding.Path)
			}
			current.binding.Target = args
		case "methods":
			if current == nil {
				return nil, fmt.Errorf("methods without route: %s", line)
			}
			if current.hasMethods {
				return nil, fmt.Errorf("route %s has multiple methods lines", current.binding.Path)
			}
			methods, err := parseMethods(args)
			if err != nil {
				return nil, fmt.Errorf("route %s: %w", current.binding.Path, err)
			}
			current.binding.Methods = methods
			current.hasMethods = true
		case "mode":
			if current == nil {
				return nil, fmt.Errorf("mode without route: %s", line)
			}
			if current.hasMode {
				return nil, fmt.Errorf("route %s has multiple mode lines", current.binding.Path)
			}
			mode, err := parseMode(args)
			if err != nil {
				return nil, fmt.Errorf("route %s: %w", current.binding.Path, err)
			}
			current.binding.Options.Mode = mode
			current.hasMode = true
		case "redirect":
			if current == nil {
				return nil, fmt.Errorf("redirect without route: %s", line)
			}
			if current.hasRedirect {
				return nil, fmt.Errorf("route %s has multiple redirect lines", current.binding.Path)
			}
			policy, err := parseRedirect(args)
			if err != nil {
				return nil, fmt.Errorf("route %s: %w", current.binding.Path, err)
			}
			current.binding.Options.Redirect = policy
			current.hasRedirect = true
		case "exclude":
			if current == nil {
				return nil, fmt.Errorf("exclude without route: %s", line)
			}
			if args == "" {
				return nil, fmt.Errorf("no path specified for exclude in route %s", current.binding.Path)
			}
			current.binding.Options.Exclude = append(current.binding.Options.Exclude, proxy.ExactPath(args))
		case "exclude-pattern":
			if current == nil {
				return nil, fmt.Errorf("exclude-pattern without route: %s", line)
			}
			pattern, err := regexp.Compile(args)
			if err != nil {
				return nil, fmt.Errorf("invalid exclude-pattern in route %s: %w", current.binding.Path, err)
			}
			current.binding.Options.Exclude = append(current.binding.Options.Exclude, proxy.PathPattern(pattern))
		case "#":
			// Ignore comments
		default:
			if len(line) > 0 {
				return nil, fmt.Errorf("invalid line: %s", line)
			}
		}
	}

	if current != nil {
		flushed, err := current.flush()
		if err != nil {
			return nil, err
		}
		bindings = append(bindings, flushed)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return bindings, nil
}

// flush finalises the route being parsed, applying defaults for directives
// that weren't given.
func (p *partialBinding) flush() (Binding, error) {
	if p.binding.Target == "" {
		return Binding{}, fmt.Errorf("no target specified for route %s", p.binding.Path)
	}
	if !p.hasMethods {
		p.binding.Methods = proxy.AllMethods
	}
	return p.binding, nil
}

func parseMethods(args string) ([]proxy.Method, error) {
	if args == "" {
		return nil, fmt.Errorf("no methods specified")
	}

	var methods []proxy.Method
	for _, name := range strings.Fields(args) {
		method, err := proxy.ParseMethod(name)
		if err != nil {
			return nil, err
		}
		methods = append(methods, method)
	}
	return methods, nil
}

func parseMode(args string) (proxy.PathMode, error) {
	switch strings.ToLower(args) {
	case "single":
		return proxy.PathModeSingle, nil
	case "root":
		return proxy.PathModeRoot, nil
	default:
		return 0, fmt.Errorf("invalid mode: %s", args)
	}
}

func parseRedirect(args string) (proxy.RedirectPolicy, error) {
	switch strings.ToLower(args) {
	case "follow":
		return proxy.RedirectFollow, nil
	case "forward":
		return proxy.RedirectForward, nil
	case "rewrite":
		return proxy.RedirectRewrite, nil
	default:
		return 0, fmt.Errorf("invalid redirect policy: %s", args)
	}
}
