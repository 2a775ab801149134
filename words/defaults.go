package words

import "github.com/spexcher/Pictionary/domain"

func w(text string, d domain.Difficulty, category string) domain.Word {
	return domain.Word{Text: text, Difficulty: d, Category: category}
}

var (
	easy   = domain.DifficultyEasy
	medium = domain.DifficultyMedium
	hard   = domain.DifficultyHard
)

// DefaultWords seeds an empty dictionary.
var DefaultWords = []domain.Word{
	w("cat", easy, "Animals"),
	w("dog", easy, "Animals"),
	w("sun", easy, "Nature"),
	w("tree", easy, "Nature"),
	w("car", easy, "Transport"),
	w("house", easy, "Buildings"),
	w("book", easy, "Objects"),
	w("phone", easy, "Technology"),
	w("pizza", easy, "Food"),
	w("apple", easy, "Food"),
	w("ball", easy, "Sports"),
	w("fish", easy, "Animals"),
	w("bird", easy, "Animals"),
	w("moon", easy, "Nature"),
	w("star", easy, "Nature"),

	w("elephant", medium, "Animals"),
	w("airplane", medium, "Transport"),
	w("bicycle", medium, "Transport"),
	w("computer", medium, "Technology"),
	w("guitar", medium, "Music"),
	w("pizza", medium, "Food"),
	w("hamburger", medium, "Food"),
	w("butterfly", medium, "Animals"),
	w("mountain", medium, "Nature"),
	w("lighthouse", medium, "Buildings"),
	w("telescope", medium, "Objects"),
	w("scissors", medium, "Objects"),
	w("umbrella", medium, "Objects"),
	w("keyboard", medium, "Technology"),
	w("dinosaur", medium, "Animals"),

	w("spaceship", hard, "Transport"),
	w("helicopter", hard, "Transport"),
	w("submarine", hard, "Transport"),
	w("triceratops", hard, "Animals"),
	w("constellation", hard, "Nature"),
	w("microscope", hard, "Objects"),
	w("stethoscope", hard, "Objects"),
	w("accordion", hard, "Music"),
	w("xylophone", hard, "Music"),
	w("hedgehog", hard, "Animals"),
	w("chandelier", hard, "Objects"),
	w("kaleidoscope", hard, "Objects"),
	w("labyrinth", hard, "Buildings"),
	w("parachute", hard, "Objects"),
	w("caterpillar", hard, "Animals"),
}
