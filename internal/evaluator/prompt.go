package evaluator

import (
	"fmt"
	"strings"
)

const judgeSystemTemplate = `You are an expert judge for evaluating answers to questions.
You will evaluate the answers to interview questions in %s domain.

Score the candidate's answer from 0 to 4.
4 = Completely correct, precise, and clear.
3 = Mostly correct, minor omission.
2 = Partially correct, but missing important details.
1 = Mostly incorrect, small parts may be true.
0 = Completely incorrect or irrelevant.

Your answer should be only an integer score from 0 to 4.

Here is the question, and the answer to it from the user:`

const summarySystemTemplate = `You are an interview feedback engine. The interview overall covers the knowledge of %s. It goes through the sub-topics and specific skills.

Your task is to generate a concise, professional interview summary based strictly on the provided data.
Do not reference the interview questions verbatim unless needed for clarity.
You are addressing the user directly.

Focus on:
- overall assessment,
- knowledge gaps,
- actionable recommendations.

If there are no knowledge gaps detected, don't talk about it. And don't recommend to learn something new. Give only recommendations that will help cover the knowledge gaps.

The sub-topics can be too atomic. You should now focus on a high-level perspective, which makes sense.

You will be given a list of: topics, questions given to the user on that topic, and a score of the user's answer from 0 to 4, calculated by the following rules:
4 = Completely correct, precise, and clear.
3 = Mostly correct, minor omission.
2 = Partially correct, but missing important details.
1 = Mostly incorrect, small parts may be true.
0 = Completely incorrect or irrelevant.

Here are the user's results:`

func judgeSystemPrompt(domain string) string {
	return fmt.Sprintf(judgeSystemTemplate, domainOrDefault(domain))
}

func summarySystemPrompt(domain string) string {
	return fmt.Sprintf(summarySystemTemplate, domainOrDefault(domain))
}

func judgeUserPrompt(question, criteria, answer string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n", question)
	if criteria != "" {
		fmt.Fprintf(&b, "Grading criteria: %s\n", criteria)
	}
	fmt.Fprintf(&b, "Answer: %s\n", answer)
	return b.String()
}

func summaryUserPrompt(results []Result) string {
	var b strings.Builder
	for _, r := range results {
		fmt.Fprintf(&b, "Topic: %s\nQuestion: %s\nScore: %d\n\n", r.Topic, r.Question, r.Score)
	}
	return b.String()
}

func domainOrDefault(domain string) string {
	if domain == "" {
		return "Java"
	}
	return domain
}
