// Package script runs page scripts for the simulated engine.
//
// A page script is a Lua chunk that may define two listeners:
//
//	function on_keydown(code, mods)
//	  -- return false to cancel the key's default action
//	end
//
//	function on_input(text)
//	  -- called with the full document text after each change
//	end
//
// Scripts see a restricted standard library (base, table, string, math) and
// a doc module bound by the engine:
//
//	doc.text()            -- current text
//	doc.set_text(s)       -- replace the text, caret at the end
//	doc.selection()       -- start, finish
//	log(msg)              -- write to the engine log
//
// Every call into Lua runs under a deadline; a listener that runs past it
// fails with ErrTimeout.
package script
