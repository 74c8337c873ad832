package targets

import (
	"github.com/parsergen/runtime-tests/driver"
	"github.com/parsergen/runtime-tests/toolchain"
)

// Python3 runs drivers with python3 from PYTHON3_HOME, PATH or a standard install.
var Python3 = Target{
	Name:     "python3",
	Language: "Python3",
	Toolchain: toolchain.Spec{
		Binary:    "python3",
		SDKEnv:    "PYTHON3_HOME",
		SDKSubdir: "bin",
		Fallbacks: map[string][]string{
			"unix":    {"/usr/bin", "/usr/local/bin"},
			"windows": {`C:\Python3`, `C:\Program Files\Python3`},
		},
		PackageManagerEnv:    "HOMEBREW_INSTALL",
		PackageManagerSubdir: "bin",
	},
	Driver: driver.Templates{
		Extension:               "py",
		Lexer:                   pythonLexer,
		ShowDFA:                 pythonShowDFA,
		Parser:                  pythonParser,
		CreateParser:            pythonCreateParser,
		CreateParserDiagnostics: pythonCreateParserDiagnostics,
	},
}

const pythonPreamble = `import os
import sys

from antlr4 import *

sys.path.insert(0, os.path.join(os.path.dirname(os.path.abspath(__file__)), 'parser'))
`

const pythonLexer = pythonPreamble + `
from <lexerName> import <lexerName>


def main(argv):
    input_stream = FileStream(argv[1], encoding='utf-8')
    lexer = <lexerName>(input_stream)
    stream = CommonTokenStream(lexer)
    stream.fill()
    for t in stream.tokens:
        print(t.text)
<showDFA>

if __name__ == '__main__':
    main(sys.argv)
`

const pythonShowDFA = `    print(lexer._interp.decisionToDFA[Lexer.DEFAULT_MODE].toLexerString(), end='')
`

const pythonParser = pythonPreamble + `from antlr4.error.DiagnosticErrorListener import DiagnosticErrorListener
from antlr4.error.Errors import IllegalStateException

from <lexerName> import <lexerName>
from <parserName> import <parserName>


class TreeShapeListener(ParseTreeListener):

    def visitTerminal(self, node):
        pass

    def visitErrorNode(self, node):
        pass

    def exitEveryRule(self, ctx):
        pass

    def enterEveryRule(self, ctx):
        for child in ctx.getChildren():
            parent = child.parentCtx
            if not isinstance(parent, RuleNode) or parent.getRuleContext() != ctx:
                raise IllegalStateException("Invalid parse tree shape detected.")


def main(argv):
    input_stream = FileStream(argv[1], encoding='utf-8')
    lexer = <lexerName>(input_stream)
    stream = CommonTokenStream(lexer)
<createParser>    parser.buildParseTrees = True
    tree = parser.<parserStartRuleName>()
    ParseTreeWalker.DEFAULT.walk(TreeShapeListener(), tree)


if __name__ == '__main__':
    main(sys.argv)
`

const pythonCreateParser = `    parser = <parserName>(stream)
`

const pythonCreateParserDiagnostics = `    parser = <parserName>(stream)
    parser.addErrorListener(DiagnosticErrorListener())
`
