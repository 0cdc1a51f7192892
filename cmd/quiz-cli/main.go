package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/stemsi/quizgen-backend/internal/config"
	"github.com/stemsi/quizgen-backend/internal/generator"
	"github.com/stemsi/quizgen-backend/internal/logger"
	"github.com/stemsi/quizgen-backend/internal/model"
	"golang.org/x/term"
)

// quizSource is satisfied by *generator.Generator.
type quizSource interface {
	Generate(ctx context.Context, topic string, count int) (*model.Quiz, error)
}

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprintln(os.Stderr, "quiz-cli is interactive; run it from a terminal")
		os.Exit(2)
	}
	if cfg.OpenAIAPIKey == "" {
		log.Fatal().Msg("OPENAI_API_KEY is not set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	gen := generator.New(generator.NewOpenAIClient(cfg), cfg, log)
	if err := play(ctx, os.Stdin, os.Stdout, gen); err != nil {
		if errors.Is(err, io.EOF) {
			return
		}
		log.Fatal().Err(err).Msg("Quiz failed")
	}
}

// play runs one quiz on the terminal and prints the score.
func play(ctx context.Context, in io.Reader, out io.Writer, gen quizSource) error {
	reader := bufio.NewReader(in)

	topic, err := prompt(reader, out, "What would you like to have a quiz on?\n")
	if err != nil {
		return err
	}
	count, err := promptInt(reader, out, "How many questions would you like?\n", 1, 0)
	if err != nil {
		return err
	}

	quiz, err := gen.Generate(ctx, topic, count)
	if err != nil {
		return err
	}

	results := model.QuizResults{Count: quiz.QuestionCount()}
	fmt.Fprintf(out, "\n%s\n\n", quiz.Prompt)
	for i, question := range quiz.Questions {
		fmt.Fprintf(out, "%d: %s\n", i+1, question.Text)
		for j, option := range question.Options {
			fmt.Fprintf(out, "\t%d) %s\n", j+1, option)
		}

		answer, err := promptInt(reader, out, "\nAnswer: ", 1, len(question.Options))
		if err != nil {
			return err
		}
		results.Answered++
		if answer-1 == question.CorrectAnswerIndex {
			results.Correct++
			fmt.Fprint(out, "Correct!\n\n")
		} else {
			fmt.Fprintf(out, "Incorrect. The correct answer was: %s\n\n", question.CorrectAnswer())
		}
	}

	fmt.Fprintf(out, "%s You scored %d out of %d\n", results.Verdict(), results.Correct, results.Count)
	return nil
}

func prompt(reader *bufio.Reader, out io.Writer, label string) (string, error) {
	for {
		fmt.Fprint(out, label)
		line, err := reader.ReadString('\n')
		line = strings.TrimSpace(line)
		if line != "" {
			return line, nil
		}
		if err != nil {
			return "", err
		}
	}
}

// promptInt asks until it reads an integer in [lo, hi]. hi <= 0 means no upper bound.
func promptInt(reader *bufio.Reader, out io.Writer, label string, lo, hi int) (int, error) {
	for {
		line, err := prompt(reader, out, label)
		if err != nil {
			return 0, err
		}
		n, convErr := strconv.Atoi(line)
		if convErr == nil && n >= lo && (hi <= 0 || n <= hi) {
			return n, nil
		}
		if hi > 0 {
			fmt.Fprintf(out, "Please enter a number from %d to %d.\n", lo, hi)
		} else {
			fmt.Fprintf(out, "Please enter a number of at least %d.\n", lo)
		}
	}
}
