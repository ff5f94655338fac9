package sqlbuilder

import (
	"strings"

	"github.com/tordrt/schemasync/internal/platform"
)

// Statement is one rendered DDL statement or comment line
type Statement struct {
	SQL     string
	Table   string // table the statement belongs to, empty for database level statements
	Comment bool
	// Terminator replaces the dialect statement delimiter, for bodies that contain it
	Terminator string
}

// Script is an ordered list of statements for one dialect
type Script struct {
	Statements []Statement
	tokens     platform.Tokens
}

func newScript(tokens platform.Tokens) *Script {
	return &Script{tokens: tokens}
}

func (s *Script) add(table, sql string) {
	s.Statements = append(s.Statements, Statement{SQL: sql, Table: table})
}

func (s *Script) addTerminated(table, sql, terminator string) {
	s.Statements = append(s.Statements, Statement{SQL: sql, Table: table, Terminator: terminator})
}

func (s *Script) comment(table, text string) {
	s.Statements = append(s.Statements, Statement{SQL: text, Table: table, Comment: true})
}

// Executable returns the SQL of every non-comment statement in order
func (s *Script) Executable() []string {
	var out []string
	for _, st := range s.Statements {
		if !st.Comment {
			out = append(out, st.SQL)
		}
	}
	return out
}

// Len returns the number of executable statements
func (s *Script) Len() int {
	return len(s.Executable())
}

// Tables returns the tables touched by the script in first-use order
func (s *Script) Tables() []string {
	seen := make(map[string]bool)
	var out []string
	for _, st := range s.Statements {
		if st.Table != "" && !seen[st.Table] {
			seen[st.Table] = true
			out = append(out, st.Table)
		}
	}
	return out
}

// ForTable returns a script holding only the statements of one table
func (s *Script) ForTable(table string) *Script {
	out := newScript(s.tokens)
	for _, st := range s.Statements {
		if st.Table == table {
			out.Statements = append(out.Statements, st)
		}
	}
	return out
}

// Split cuts the script into runs of consecutive statements on the same table
func (s *Script) Split() []*Script {
	var out []*Script
	for _, st := range s.Statements {
		if len(out) == 0 || out[len(out)-1].Statements[0].Table != st.Table {
			out = append(out, newScript(s.tokens))
		}
		last := out[len(out)-1]
		last.Statements = append(last.Statements, st)
	}
	return out
}

// Append adds the statements of other to s
func (s *Script) Append(other *Script) {
	s.Statements = append(s.Statements, other.Statements...)
}

// String renders the script as delimited DDL text
func (s *Script) String() string {
	var sb strings.Builder
	for _, st := range s.Statements {
		if st.Comment {
			sb.WriteString(s.tokens.CommentPrefix)
			sb.WriteString(" ")
			sb.WriteString(st.SQL)
			if s.tokens.CommentSuffix != "" {
				sb.WriteString(" ")
				sb.WriteString(s.tokens.CommentSuffix)
			}
			sb.WriteString("\n")
			continue
		}
		sb.WriteString(st.SQL)
		if st.Terminator != "" {
			sb.WriteString(st.Terminator)
		} else {
			sb.WriteString(s.tokens.StatementDelimiter)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
