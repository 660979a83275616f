package partition

import (
	"bytes"
	"encoding/json"
	"text/template"

	"github.com/packsplit/packsplit/internal/minifier"
)

// GlobalName is the window property the bootstrap installs.
const GlobalName = "__packsplit__"

var runtimeTemplate = template.Must(template.New("runtime").Parse(`// packsplit runtime for entry {{.EntryJSON}}
(function (global) {
  var registry = global.{{.Global}} || (global.{{.Global}} = { defs: {}, cache: {}, chunks: {} });

  // define registers a module factory; chunks call it as they load.
  registry.define = registry.define || function (id, factory) {
    registry.defs[id] = factory;
  };

  registry.require = registry.require || function (id) {
    var cached = registry.cache[id];
    if (cached) {
      return cached.exports;
    }
    var factory = registry.defs[id];
    if (!factory) {
      throw new Error("packsplit: module not loaded: " + id);
    }
    var module = { id: id, exports: {} };
    registry.cache[id] = module;
    factory.call(module.exports, module, module.exports, registry.require);
    return module.exports;
  };

  // load fetches an async chunk file once and resolves when it has run.
  registry.load = registry.load || function (src) {
    if (registry.chunks[src]) {
      return registry.chunks[src];
    }
    registry.chunks[src] = new Promise(function (resolve, reject) {
      var script = document.createElement("script");
      script.src = src;
      script.onload = resolve;
      script.onerror = function () {
        delete registry.chunks[src];
        reject(new Error("packsplit: failed to load " + src));
      };
      document.head.appendChild(script);
    });
    return registry.chunks[src];
  };

  registry.start = function (entry, id) {
    if (entry !== {{.EntryJSON}}) {
      return;
    }
    return registry.require(id);
  };

  registry.entry = {{.ModuleJSON}};
})(window);
`))

// RuntimeSource generates the bootstrap of one entry, minified when
// minify is set.
func RuntimeSource(entry, module string, minify bool) ([]byte, error) {
	entryJSON, _ := json.Marshal(entry)
	moduleJSON, _ := json.Marshal(module)

	var buf bytes.Buffer
	err := runtimeTemplate.Execute(&buf, map[string]string{
		"Global":     GlobalName,
		"EntryJSON":  string(entryJSON),
		"ModuleJSON": string(moduleJSON),
	})
	if err != nil {
		return nil, err
	}

	if !minify {
		return buf.Bytes(), nil
	}
	return minifier.Script(buf.Bytes())
}
