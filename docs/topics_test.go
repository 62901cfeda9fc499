package docs

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"testing"

	"github.com/etnz/cryptofolio"
	"github.com/etnz/cryptofolio/config"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

func TestTopics(t *testing.T) {
	// Every topic listed in readme.md loads, and every .md file is listed.
	file, err := os.Open("readme.md")
	if err != nil {
		t.Fatalf("failed to open readme.md: %v", err)
	}
	defer file.Close()

	var listed []string
	scanner := bufio.NewScanner(file)
	topicRegex := regexp.MustCompile(`^\*\s+([^:]+):.*$`)
	for scanner.Scan() {
		if m := topicRegex.FindStringSubmatch(scanner.Text()); len(m) > 1 {
			listed = append(listed, strings.TrimSpace(m[1]))
		}
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("error scanning readme.md: %v", err)
	}

	for _, topic := range listed {
		t.Run("load_"+topic, func(t *testing.T) {
			if _, err := GetTopic(topic); err != nil {
				t.Errorf("failed to get topic %q: %v", topic, err)
			}
		})
	}

	all, err := GetAllTopics()
	if err != nil {
		t.Fatalf("GetAllTopics() error = %v", err)
	}
	for _, topic := range all {
		if !slices.Contains(listed, topic) {
			t.Errorf("topic %q is not listed in docs/readme.md", topic)
		}
	}

	if _, err := GetTopic("nope"); err == nil {
		t.Errorf("GetTopic(nope) should fail")
	}
	star, err := GetTopic("*")
	if err != nil {
		t.Fatalf("GetTopic(*) error = %v", err)
	}
	if strings.Contains(star, "# folio\n") {
		t.Errorf("GetTopic(*) should not include the readme")
	}
}

// Block is a fenced code block of a markdown file.
type Block struct {
	Lang    string
	Content string
	File    string
	Line    int
}

func TestCodeBlocks(t *testing.T) {
	files, err := filepath.Glob("*.md")
	if err != nil {
		t.Fatal(err)
	}
	for _, file := range files {
		t.Run(file, func(t *testing.T) {
			for _, b := range parseMarkdown(t, file) {
				checkBlock(t, b)
			}
		})
	}
}

// checkBlock verifies the blocks that can be checked without running folio.
func checkBlock(t *testing.T, b *Block) {
	t.Helper()
	switch b.Lang {
	case "yaml":
		path := filepath.Join(t.TempDir(), "folio.yaml")
		if err := os.WriteFile(path, []byte(b.Content), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := config.LoadFromFile(path); err != nil {
			t.Errorf("%s:%d: invalid configuration: %v", b.File, b.Line, err)
		}
	case "csv":
		if !strings.HasPrefix(b.Content, "UTC_Time") {
			return
		}
		res, err := cryptofolio.LoadEvents(strings.NewReader(b.Content))
		if err != nil {
			t.Errorf("%s:%d: invalid statement: %v", b.File, b.Line, err)
			return
		}
		if res.Dropped > 0 {
			t.Errorf("%s:%d: statement drops %d rows", b.File, b.Line, res.Dropped)
		}
	case "bash", "console":
		for _, line := range strings.Split(strings.TrimSpace(b.Content), "\n") {
			if !strings.HasPrefix(line, "folio ") {
				t.Errorf("%s:%d: command %q does not run folio", b.File, b.Line, line)
			}
		}
	}
}

// parseMarkdown parses a markdown file and returns its fenced code blocks.
func parseMarkdown(t *testing.T, file string) []*Block {
	t.Helper()

	content, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("failed to read %s: %v", file, err)
	}
	root := goldmark.DefaultParser().Parse(text.NewReader(content))

	var blocks []*Block
	ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		fcb, ok := n.(*ast.FencedCodeBlock)
		if !ok || fcb.Info == nil {
			return ast.WalkContinue, nil
		}
		var body strings.Builder
		for i := 0; i < fcb.Lines().Len(); i++ {
			line := fcb.Lines().At(i)
			body.Write(line.Value(content))
		}
		blocks = append(blocks, &Block{
			Lang:    string(fcb.Language(content)),
			Content: body.String(),
			File:    file,
			Line:    lineNumber(content, fcb.Info.Segment.Start),
		})
		return ast.WalkContinue, nil
	})
	return blocks
}

// lineNumber returns the 1-based line of offset in source.
func lineNumber(source []byte, offset int) int {
	return strings.Count(string(source[:offset]), "\n") + 1
}
