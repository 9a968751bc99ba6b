// Package kb loads and indexes the knowledge-base corpus. The pipeline only
// ever reads the indexed store; ingestion is a separate command.
package kb

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Article is one knowledge-base document in the corpus file.
type Article struct {
	DocID    string `yaml:"doc_id"`
	Title    string `yaml:"title"`
	Category string `yaml:"category"`
	URL      string `yaml:"url"`
	Content  string `yaml:"content"`
}

// Corpus is the on-disk knowledge-base format.
type Corpus struct {
	Articles []Article `yaml:"articles"`
}

func LoadCorpus(r io.Reader) (Corpus, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Corpus{}, err
	}
	var c Corpus
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Corpus{}, fmt.Errorf("parse corpus: %w", err)
	}
	for i, a := range c.Articles {
		if strings.TrimSpace(a.DocID) == "" {
			return Corpus{}, fmt.Errorf("article %d: doc_id required", i)
		}
		if strings.TrimSpace(a.Content) == "" {
			return Corpus{}, fmt.Errorf("article %s: content required", a.DocID)
		}
	}
	return c, nil
}

func LoadCorpusFile(path string) (Corpus, error) {
	f, err := os.Open(path)
	if err != nil {
		return Corpus{}, err
	}
	defer func() {
		_ = f.Close()
	}()
	return LoadCorpus(f)
}
