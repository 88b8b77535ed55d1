// Package tfidf convierte las sinopsis en vectores dispersos TF-IDF.
//
// Tokens: secuencias de 2 o más caracteres de palabra en minúsculas.
// Peso: tf (conteo) · idf, con idf = ln((1+N)/(1+df)) + 1, y cada
// documento normalizado a norma L2 = 1. Un documento sin términos del
// vocabulario queda como vector cero.
package tfidf

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

var wordRe = regexp.MustCompile(`[\p{L}\p{M}\p{N}_]+`)

// SparseVector guarda solo las entradas no nulas; Indices va en orden creciente.
type SparseVector struct {
	Indices []int
	Values  []float64
}

// Len es la cantidad de entradas no nulas.
func (v SparseVector) Len() int { return len(v.Indices) }

// Dot recorre ambos vectores en paralelo (merge por índice).
func (v SparseVector) Dot(o SparseVector) float64 {
	var sum float64
	i, j := 0, 0
	for i < len(v.Indices) && j < len(o.Indices) {
		switch {
		case v.Indices[i] == o.Indices[j]:
			sum += v.Values[i] * o.Values[j]
			i++
			j++
		case v.Indices[i] < o.Indices[j]:
			i++
		default:
			j++
		}
	}
	return sum
}

// Norm es la norma L2.
func (v SparseVector) Norm() float64 {
	var sum float64
	for _, x := range v.Values {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// Vectorizer aprende vocabulario e idf de un corpus fijo.
type Vectorizer struct {
	stopWords  map[string]struct{}
	vocabulary map[string]int
	terms      []string
	df         []int
	idf        []float64
	nDocs      int
}

type Option func(*Vectorizer)

// WithStopWords reemplaza la lista de palabras vacías (nil = ninguna).
func WithStopWords(words []string) Option {
	return func(v *Vectorizer) {
		v.stopWords = make(map[string]struct{}, len(words))
		for _, w := range words {
			v.stopWords[strings.ToLower(w)] = struct{}{}
		}
	}
}

func NewVectorizer(opts ...Option) *Vectorizer {
	v := &Vectorizer{stopWords: EnglishStopWords()}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Tokenize pasa a minúsculas, separa en palabras y descarta las de un
// solo carácter y las palabras vacías.
func (v *Vectorizer) Tokenize(doc string) []string {
	words := wordRe.FindAllString(strings.ToLower(doc), -1)
	out := words[:0]
	for _, w := range words {
		if utf8.RuneCountInString(w) < 2 {
			continue
		}
		if _, stop := v.stopWords[w]; stop {
			continue
		}
		out = append(out, w)
	}
	return out
}

// FitTransform construye el vocabulario con todo el corpus y devuelve un
// vector por documento, en el mismo orden.
func (v *Vectorizer) FitTransform(docs []string) []SparseVector {
	tokenized := make([][]string, len(docs))
	seen := make(map[string]struct{})
	for i, doc := range docs {
		tokenized[i] = v.Tokenize(doc)
		for _, t := range tokenized[i] {
			seen[t] = struct{}{}
		}
	}

	v.terms = make([]string, 0, len(seen))
	for t := range seen {
		v.terms = append(v.terms, t)
	}
	sort.Strings(v.terms)

	v.vocabulary = make(map[string]int, len(v.terms))
	for i, t := range v.terms {
		v.vocabulary[t] = i
	}

	v.nDocs = len(docs)
	v.df = make([]int, len(v.terms))
	for _, tokens := range tokenized {
		counted := make(map[int]struct{}, len(tokens))
		for _, t := range tokens {
			idx := v.vocabulary[t]
			if _, ok := counted[idx]; ok {
				continue
			}
			counted[idx] = struct{}{}
			v.df[idx]++
		}
	}

	v.idf = make([]float64, len(v.terms))
	n := float64(v.nDocs)
	for i, df := range v.df {
		v.idf[i] = math.Log((1+n)/(1+float64(df))) + 1
	}

	out := make([]SparseVector, len(docs))
	for i, tokens := range tokenized {
		out[i] = v.weigh(tokens)
	}
	return out
}

// Transform vectoriza un texto nuevo con el vocabulario ya aprendido;
// los términos desconocidos se ignoran.
func (v *Vectorizer) Transform(doc string) SparseVector {
	return v.weigh(v.Tokenize(doc))
}

func (v *Vectorizer) weigh(tokens []string) SparseVector {
	counts := make(map[int]int, len(tokens))
	for _, t := range tokens {
		if idx, ok := v.vocabulary[t]; ok {
			counts[idx]++
		}
	}
	if len(counts) == 0 {
		return SparseVector{}
	}

	indices := make([]int, 0, len(counts))
	for idx := range counts {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	values := make([]float64, len(indices))
	var norm float64
	for i, idx := range indices {
		w := float64(counts[idx]) * v.idf[idx]
		values[i] = w
		norm += w * w
	}
	norm = math.Sqrt(norm)
	for i := range values {
		values[i] /= norm
	}
	return SparseVector{Indices: indices, Values: values}
}

// VocabularySize es la cantidad de términos aprendidos.
func (v *Vectorizer) VocabularySize() int { return len(v.terms) }

// Term devuelve el término en la posición idx del vocabulario.
func (v *Vectorizer) Term(idx int) string { return v.terms[idx] }

// Index devuelve la posición de un término, o -1.
func (v *Vectorizer) Index(term string) int {
	if idx, ok := v.vocabulary[term]; ok {
		return idx
	}
	return -1
}

// IDF devuelve 0 para términos fuera del vocabulario.
func (v *Vectorizer) IDF(term string) float64 {
	if idx, ok := v.vocabulary[term]; ok {
		return v.idf[idx]
	}
	return 0
}

// TermCount es un término con su frecuencia de documento.
type TermCount struct {
	Term string
	DF   int
}

// TopTerms devuelve los n términos presentes en más documentos;
// empates en orden alfabético.
func (v *Vectorizer) TopTerms(n int) []TermCount {
	out := make([]TermCount, len(v.terms))
	for i, t := range v.terms {
		out[i] = TermCount{Term: t, DF: v.df[i]}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DF > out[j].DF })
	if n > 0 && n < len(out) {
		out = out[:n]
	}
	return out
}
