package scanner

import "testing"

func allTokens(source string) []Token {
	s := New(source)
	var out []Token
	for {
		tok := s.NextToken()
		out = append(out, tok)
		if tok.Type == EOF || tok.Type == Error {
			break
		}
	}
	return out
}

func TestScannerPunctuationAndOperators(t *testing.T) {
	toks := allTokens("(){}[],.-+;/*&|^~ ! != = == < <= << > >= >>")
	want := []TokenType{
		LeftParen, RightParen, LeftBrace, RightBrace, LeftBracket, RightBracket,
		Comma, Dot, Minus, Plus, Semicolon, Slash, Star, Amp, Pipe, Caret, Tilde,
		Bang, BangEqual, Equal, EqualEqual, Less, LessEqual, LessLess,
		Greater, GreaterEqual, GreaterGreater, EOF,
	}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(toks), len(want), toks)
	}
	for i, w := range want {
		if toks[i].Type != w {
			t.Errorf("token %d: got %v, want %v (%q)", i, toks[i].Type, w, toks[i].Lexeme)
		}
	}
}

func TestScannerKeywordsVsIdentifiers(t *testing.T) {
	toks := allTokens("class foobar while classy")
	want := []TokenType{Class, Identifier, While, Identifier, EOF}
	for i, w := range want {
		if toks[i].Type != w {
			t.Errorf("token %d: got %v, want %v", i, toks[i].Type, w)
		}
	}
}

func TestScannerNumbers(t *testing.T) {
	toks := allTokens("42 3.14 0")
	for i, want := range []string{"42", "3.14", "0"} {
		if toks[i].Type != Number || toks[i].Lexeme != want {
			t.Errorf("token %d = %v %q, want Number %q", i, toks[i].Type, toks[i].Lexeme, want)
		}
	}
}

func TestScannerStrings(t *testing.T) {
	toks := allTokens(`"hello world"`)
	if toks[0].Type != String || toks[0].Lexeme != `"hello world"` {
		t.Fatalf("got %v %q", toks[0].Type, toks[0].Lexeme)
	}
}

func TestScannerUnterminatedString(t *testing.T) {
	toks := allTokens(`"oops`)
	if toks[0].Type != Error {
		t.Fatalf("expected Error token, got %v", toks[0].Type)
	}
}

func TestScannerComments(t *testing.T) {
	toks := allTokens("var x = 1; // trailing comment\nvar y = /* inline */ 2;")
	var types []TokenType
	for _, tok := range toks {
		types = append(types, tok.Type)
	}
	want := []TokenType{Var, Identifier, Equal, Number, Semicolon, Var, Identifier, Equal, Number, Semicolon, EOF}
	if len(types) != len(want) {
		t.Fatalf("got %d tokens %v, want %d", len(types), types, len(want))
	}
	for i, w := range want {
		if types[i] != w {
			t.Errorf("token %d: got %v, want %v", i, types[i], w)
		}
	}
}

func TestScannerLineTracking(t *testing.T) {
	toks := allTokens("var x\n= 1;")
	if toks[0].Line != 1 {
		t.Errorf("`var` should be on line 1, got %d", toks[0].Line)
	}
	// find the Equal token
	for _, tok := range toks {
		if tok.Type == Equal {
			if tok.Line != 2 {
				t.Errorf("`=` should be on line 2, got %d", tok.Line)
			}
		}
	}
}
