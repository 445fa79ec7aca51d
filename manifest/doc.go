// Package manifest loads declarative provider tables.
//
// A manifest is a *.keg.yaml (or *.keg.yml / *.keg.json) file sitting next to
// the Go code it describes:
//
//	package: greeter
//	providers:
//	  - name: provideConfig
//	    factory: ProvideConfig
//	    returns: Config
//	    qualifiers: [DbConfig]
//	  - name: EnglishGreeter
//	    class: NewEnglishGreeter
//	    implements: [Greeter]
//	    deps: [{token: DbConfig, type: Config}]
//	    default: true
//
// Manifests are the explicit descriptor-construction step of keg: Nodes turns
// every entry into a graph.Node with tokens derived by di.ClassTokens or
// di.FactoryTokens. JSON manifests are read by the same YAML decoder.
package manifest
