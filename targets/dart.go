package targets

import (
	"path/filepath"

	"github.com/parsergen/runtime-tests/driver"
	"github.com/parsergen/runtime-tests/toolchain"
)

// Dart runs drivers with the dart executable from DART_SDK, PATH or a standard install.
var Dart = Target{
	Name:     "dart",
	Language: "Dart",
	Toolchain: toolchain.Spec{
		Binary:    "dart",
		SDKEnv:    "DART_SDK",
		SDKSubdir: "bin",
		Fallbacks: map[string][]string{
			"unix":    {"/usr/lib/dart/bin", "/usr/lib/dart"},
			"windows": {`C:\Program Files\Dart\dart-sdk\bin`, `C:\Program Files\Dart\dart-sdk`},
		},
		PackageManagerEnv:    "HOMEBREW_INSTALL",
		PackageManagerSubdir: filepath.Join("opt", "dart", "libexec", "bin"),
	},
	Driver: driver.Templates{
		Extension:               "dart",
		Lexer:                   dartLexer,
		ShowDFA:                 dartShowDFA,
		Parser:                  dartParser,
		CreateParser:            dartCreateParser,
		CreateParserDiagnostics: dartCreateParserDiagnostics,
		CapitalizeStartRule:     true,
	},
}

const dartLexer = `import 'dart:io';

import 'package:antlr4/antlr4.dart';

import 'parser/<lexerName>.dart';

void main(List\<String> args) async {
  final input = await InputStream.fromPath(args[0]);
  final lexer = <lexerName>(input);
  final tokens = CommonTokenStream(lexer);
  tokens.fill();
  for (final token in tokens.getTokens()) {
    print(token.text);
  }
<showDFA>}
`

const dartShowDFA = `  stdout.write(lexer.interpreter!.getDFA(Lexer.DEFAULT_MODE).toLexerString());
`

const dartParser = `import 'dart:io';

import 'package:antlr4/antlr4.dart';

import 'parser/<lexerName>.dart';
import 'parser/<parserName>.dart';

void main(List\<String> args) async {
  final input = await InputStream.fromPath(args[0]);
  final lexer = <lexerName>(input);
  final tokens = CommonTokenStream(lexer);
<createParser>  parser.buildParseTree = true;
  final tree = parser.<parserStartRuleName>();
  ParseTreeWalker.DEFAULT.walk(TreeShapeListener(), tree);
}

class TreeShapeListener implements ParseTreeListener {
  @override
  void visitTerminal(TerminalNode node) {}

  @override
  void visitErrorNode(ErrorNode node) {}

  @override
  void exitEveryRule(ParserRuleContext ctx) {}

  @override
  void enterEveryRule(ParserRuleContext ctx) {
    for (var i = 0; i \< ctx.childCount; i++) {
      final parent = ctx.getChild(i)?.parent;
      if (parent is! RuleNode || parent.ruleContext != ctx) {
        throw StateError('Invalid parse tree shape detected.');
      }
    }
  }
}
`

const dartCreateParser = `  final parser = <parserName>(tokens);
`

const dartCreateParserDiagnostics = `  final parser = <parserName>(tokens);
  parser.addErrorListener(DiagnosticErrorListener());
`
