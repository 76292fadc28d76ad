// Copyright 2026 gbfuzz project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package grammar

// Charset is the set of characters allowed in JSON grammar strings.
// It's also used as the mutation alphabet of the JSON campaign.
const Charset = "0123456789" +
	"abcdefghijklmnopqrstuvwxyz" +
	"ABCDEFGHIJKLMNOPQRSTUVWXYZ" +
	"!#$%&'()*+,-./:;<=>?@[]^_`{|}~ "

func charsetExpansions() []string {
	var res []string
	for _, c := range Charset {
		res = append(res, string(c))
	}
	return res
}

// JSON is a grammar of a JSON subset: no escapes in strings, single space as whitespace.
var JSON = Grammar{
	"<start>":   {"<json>"},
	"<json>":    {"<element>"},
	"<element>": {"<ws><value><ws>"},
	"<object>":  {"{<ws>}", "{<members>}"},
	"<value>": {
		"<object>", "<array>", "<string>", "<number>",
		"true", "false", "null",
	},
	"<members>":     {"<member><symbol-2>"},
	"<member>":      {"<ws><string><ws>:<element>"},
	"<array>":       {"[<ws>]", "[<elements>]"},
	"<elements>":    {"<element><symbol-1-1>"},
	"<string>":      {`"<characters>"`},
	"<characters>":  {"<character-1>"},
	"<character>":   charsetExpansions(),
	"<number>":      {"<int><frac><exp>"},
	"<int>":         {"<digit>", "<onenine><digits>", "-<digit>", "-<onenine><digits>"},
	"<digits>":      {"<digit-1>"},
	"<digit>":       {"0", "<onenine>"},
	"<onenine>":     {"1", "2", "3", "4", "5", "6", "7", "8", "9"},
	"<frac>":        {"", ".<digits>"},
	"<exp>":         {"", "E<sign><digits>", "e<sign><digits>"},
	"<sign>":        {"", "+", "-"},
	"<ws>":          {" "},
	"<symbol>":      {",<members>"},
	"<symbol-1>":    {",<elements>"},
	"<symbol-2>":    {"", "<symbol><symbol-2>"},
	"<symbol-1-1>":  {"", "<symbol-1><symbol-1-1>"},
	"<character-1>": {"", "<character><character-1>"},
	"<digit-1>":     {"<digit>", "<digit><digit-1>"},
}
