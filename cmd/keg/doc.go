// Command keg validates provider manifests and generates the code that
// registers them with a di.Registry.
//
// Manifests are YAML or JSON files named *.keg.yaml, *.keg.yml or
// *.keg.json. keg scans the source directory for them, merges them in path
// order and checks the resulting provider graph before anything is written:
//
//   - every provider has exactly one construction strategy
//   - no token has more than one default
//   - no token is ambiguous (several providers, no default)
//   - every dependency has a provider
//   - every provider bound to a dependency declares the expected type
//   - no dependency cycle exists
//
// All violations are reported together unless -fail-fast is given.
//
// # Commands
//
//	keg validate [-config keg.yaml] [-src dir] [-strict] [-fail-fast] [-dump]
//	keg generate [-out dir] [-file name] [-package name] [-check]
//	keg version
//
// generate writes a single file (container.gen.go by default) exposing
// Providers, RegisterProviders and MustRegisterProviders. With -check it
// writes nothing and exits 1 with a unified diff when the file on disk is out
// of date, which suits CI.
//
// # Configuration
//
// Settings are layered, later sources winning: built-in defaults, keg.yaml,
// .env files, KEG_* environment variables, then flags.
//
//	srcDir: ./src              # KEG_SRC_DIR
//	outDir: ./src/generated    # KEG_OUT_DIR
//	outFile: container.gen.go  # KEG_OUT_FILE
//	package: wiring            # KEG_PACKAGE
//	strict: true               # KEG_STRICT
//	failFast: false            # KEG_FAIL_FAST
//	ignore: [testdata]         # KEG_IGNORE (comma separated)
//	log:
//	  level: info              # KEG_LOG_LEVEL
//	  format: console          # KEG_LOG_FORMAT
//
// With strict set to false, ambiguous tokens only warn unless some
// dependency requests them as a single value.
//
// # Exit codes
//
//	0  success
//	1  validation failure, stale output or I/O error
//	2  usage error
package main
