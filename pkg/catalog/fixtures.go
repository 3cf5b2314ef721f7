package catalog

import "github.com/ritzau/gardener-conformance/pkg/graph"

// C tree scanned with -I <tree>/inc/. Every file below src/ and inc/ is a
// scan root; ../non/existing.h never resolves and iostream is a system
// header outside the tree.
var cReference = graph.Table{
	"src/f_1.c":         {"iostream", "inc/lib/f_2.h", "inc/lib/f_1.h"},
	"src/f_2.c":         {"inc/lib2/f_1.h"},
	"src/f_3.c":         {"../non/existing.h", "iostream", "inc/lib/f_3.h"},
	"inc/lib/f_1.h":     {"inc/lib/f_3.h", "inc/lib2/f_4.h"},
	"inc/lib/f_2.h":     {"inc/lib/f_1.h"},
	"inc/lib/f_3.h":     {"inc/lib/f_1.h"},
	"inc/lib2/f_1.h":    {},
	"inc/lib2/f_4.h":    {},
	"../non/existing.h": {},
	"iostream":          {},
}

var cRoots = []string{
	"src/f_1.c",
	"src/f_2.c",
	"src/f_3.c",
	"inc/lib/f_1.h",
	"inc/lib/f_2.h",
	"inc/lib/f_3.h",
	"inc/lib2/f_1.h",
	"inc/lib2/f_4.h",
}

// Python package tree. A package's __init__.py is a node of its own and
// star imports of a package point at it. Unresolvable module names
// (stdlib modules and a bogus import) are dangling leaves.
var pythonReference = graph.Table{
	"file1.py":  {"pack1/subpack1/file1.py", "pack1/__init__.py", "pack2/__init__.py"},
	"file2.py3": {"sys", "pack1/subpack1/__init__.py", "pack1/file1.py", "os", "pack2/__init__.py"},
	"file3.pyw": {"pack2/__init__.py", "bogusfilename"},

	"pack1/file1.py":    {"pack1/subpack1/file1.py", "pack2/file1.py"},
	"pack1/file2.py":    {"file1.py", "file3.pyw", "pack1/subpack1/file1.py"},
	"pack1/file3.py":    {"sys"},
	"pack1/__init__.py": {"pickle"},

	"pack1/subpack1/file1.py":    {"file3.pyw"},
	"pack1/subpack1/file2.py":    {"sys", "file1.py"},
	"pack1/subpack1/file3.py":    {"filecmp"},
	"pack1/subpack1/__init__.py": {},

	"pack2/file1.py":    {},
	"pack2/file2.py":    {"filecmp"},
	"pack2/file3.py":    {"pack1/file2.py"},
	"pack2/__init__.py": {"pack2/file1.py", "pack2/file2.py", "pack2/file3.py"},

	"pack3/file1.py":    {},
	"pack3/__init__.py": {"pack3/file1.py"},

	"bogusfilename": {},
	"filecmp":       {},
	"os":            {},
	"pickle":        {},
	"sys":           {},
}

var pythonRoots = []string{
	"file1.py",
	"file2.py3",
	"file3.pyw",
	"pack1/__init__.py",
	"pack1/file1.py",
	"pack1/file2.py",
	"pack1/file3.py",
	"pack1/subpack1/__init__.py",
	"pack1/subpack1/file1.py",
	"pack1/subpack1/file2.py",
	"pack1/subpack1/file3.py",
	"pack2/__init__.py",
	"pack2/file1.py",
	"pack2/file2.py",
	"pack2/file3.py",
	"pack3/__init__.py",
	"pack3/file1.py",
}

// Ruby tree scanned with -I <tree>/lib: require resolves against lib/
// first, require_relative against the requiring file.
var rubyReference = graph.Table{
	"motorcycle_test.rb": {"lib/motorcycle.rb", "motorcycle_2.rb", "motorcycle_3.rb", "motorcycle_4.rb"},
	"motorcycle_3.rb":    {"lib/sidecar.rb"},
	"lib/motorcycle.rb":  {},
	"motorcycle_2.rb":    {},
	"motorcycle_4.rb":    {},
	"lib/sidecar.rb":     {},
}

var rubyRoots = []string{
	"motorcycle_test.rb",
	"motorcycle_2.rb",
	"motorcycle_3.rb",
	"motorcycle_4.rb",
	"lib/motorcycle.rb",
	"lib/sidecar.rb",
}
