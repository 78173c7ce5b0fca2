package rank

// stopwords is the coarse stopword set for the reranking tokenizer:
// articles, prepositions, pronouns, auxiliaries, modals, and the loose
// parts of common contractions. It is deliberately coarser than the
// stemmer-driven list the full-text stage uses.
var stopwords = map[string]struct{}{}

func init() {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else",
		"when", "at", "by", "for", "with", "about", "against",
		"between", "into", "through", "during", "before", "after",
		"above", "below", "to", "from", "up", "down", "in", "out",
		"on", "off", "over", "under", "again", "further", "once",
		"here", "there", "all", "each", "few", "more", "most",
		"other", "some", "such", "no", "nor", "not", "only", "own",
		"same", "so", "than", "too", "very", "just", "can", "will",
		"should", "now", "i", "me", "my", "myself", "we", "our",
		"ours", "ourselves", "you", "your", "yours", "yourself",
		"yourselves", "he", "him", "his", "himself", "she", "her",
		"hers", "herself", "it", "its", "itself", "they", "them",
		"their", "theirs", "themselves", "what", "which", "who",
		"whom", "this", "that", "these", "those", "am", "is", "are",
		"was", "were", "be", "been", "being", "have", "has", "had",
		"having", "do", "does", "did", "doing", "would", "could",
		"ought", "of", "as", "how", "why", "because", "while",
		"also", "any", "both", "either", "neither",
		// Modal verbs
		"may", "might", "must", "shall",
		// Location and time
		"where", "until", "since", "yet", "still", "upon", "within",
		"without", "well",
		// Contraction parts, e.g. "we'll" tokenizes to "we", "ll"
		"ll", "ve", "re", "d", "m", "s", "t",
		"don", "won", "aren", "couldn", "didn", "doesn", "hadn",
		"hasn", "haven", "isn", "mustn", "needn", "shan", "shouldn",
		"wasn", "weren", "wouldn",
	}
	for _, w := range words {
		stopwords[w] = struct{}{}
	}
}
