// Package internal contains the implementation packages of the taglint CLI.
//
// # Package Organization
//
//   - markup: tokenizer for server-page markup producing tags and attributes
//   - policy: forbidden and prefix-allow tables and their loaders
//   - checker: applies a policy to a walked document and yields violations
//   - scanner: file discovery, exclusion and the concurrent check driver
//   - charset: decoding of templates and policy files
//   - report: text, XML, JSON, YAML and HTML reports, and report diffs
//   - config: viper-backed configuration
//   - logging: structured logging over log/slog
//   - errors: typed errors and the per-file error collector
//   - watcher: debounced fsnotify watching for watch mode
//   - version: build information
//
// Data flows one way: scanner finds files, charset decodes them, markup
// walks them, checker applies the policy and report renders the results.
package internal
