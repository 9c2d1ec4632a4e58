package cascade

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

var rewriteKeys = [][]string{{"text"}, {"reason"}}

func TestClean(t *testing.T) {
	Convey("Clean 清理模型返回内容", t, func() {
		Convey("带语言标签的代码块", func() {
			raw := "```json\n{\"text\":\"A\",\"reason\":\"B\"}\n```"
			So(Clean(raw), ShouldEqual, `{"text":"A","reason":"B"}`)
		})

		Convey("大写语言标签和前后说明文字", func() {
			raw := "Sure! Here you go:\n```JSON\n{\"text\":\"A\",\"reason\":\"B\"}\n```\nHope it helps."
			So(Clean(raw), ShouldEqual, `{"text":"A","reason":"B"}`)
		})

		Convey("思考块中的花括号不影响截取", func() {
			raw := "<think>Maybe {\"text\":\"draft\"} works?</think>\n{\"text\":\"A\",\"reason\":\"B\"}"
			So(Clean(raw), ShouldEqual, `{"text":"A","reason":"B"}`)

			raw = "<Thinking>\nplan {x}\n</Thinking>{\"text\":\"A\",\"reason\":\"B\"}<reasoning>{y}</reasoning>"
			So(Clean(raw), ShouldEqual, `{"text":"A","reason":"B"}`)
		})

		Convey("嵌套拼接出的标记也会被移除", func() {
			raw := "<thi<think>x</think>nk>{bad}</think>{\"text\":\"A\",\"reason\":\"B\"}"
			So(Clean(raw), ShouldEqual, `{"text":"A","reason":"B"}`)
		})

		Convey("JSON 字符串值中的代码块标记保持原样", func() {
			raw := "{\"text\":\"Wrap it in ```go fences.\",\"reason\":\"Named the markup.\"}"
			So(Clean(raw), ShouldEqual, raw)

			fenced := "```json\n" + raw + "\n```"
			So(Clean(fenced), ShouldEqual, raw)
		})

		Convey("没有花括号时移除代码块标记", func() {
			So(Clean("```text\nplain words\n```"), ShouldEqual, "plain words")
		})

		Convey("没有花括号时只去除空白", func() {
			So(Clean("  plain words \n"), ShouldEqual, "plain words")
			So(Clean(""), ShouldEqual, "")
		})

		Convey("幂等", func() {
			inputs := []string{
				"```json\n{\"text\":\"A\",\"reason\":\"B\"}\n```",
				"<think>{a}</think> {\"k\": 1} trailing }",
				"} backwards {",
				"``````json``` {}",
				"   ",
				"{\"text\":\"```go x```\"}",
				"<thi```nk>x</think> words",
			}
			for _, in := range inputs {
				once := Clean(in)
				So(Clean(once), ShouldEqual, once)
			}
		})
	})
}

func TestValidate(t *testing.T) {
	Convey("Validate 校验清理后的 JSON", t, func() {
		Convey("字段齐全", func() {
			outcome, err := Validate(`{"text":"A","reason":"B","extra":1}`, rewriteKeys)
			So(err, ShouldBeNil)
			So(outcome, ShouldEqual, OutcomeSuccess)
		})

		Convey("空内容", func() {
			outcome, err := Validate("", rewriteKeys)
			So(err, ShouldNotBeNil)
			So(outcome, ShouldEqual, OutcomeEmptyContent)
		})

		Convey("非法 JSON", func() {
			outcome, _ := Validate(`{"text": "A",`, rewriteKeys)
			So(outcome, ShouldEqual, OutcomeInvalidJSON)

			outcome, _ = Validate(`null`, rewriteKeys)
			So(outcome, ShouldEqual, OutcomeInvalidJSON)

			outcome, _ = Validate(`["text"]`, rewriteKeys)
			So(outcome, ShouldEqual, OutcomeInvalidJSON)
		})

		Convey("缺少字段、空字符串或非字符串", func() {
			outcome, err := Validate(`{"text":"A"}`, rewriteKeys)
			So(outcome, ShouldEqual, OutcomeMissingKeys)
			So(err.Error(), ShouldContainSubstring, "reason")

			outcome, _ = Validate(`{"text":"  ","reason":"B"}`, rewriteKeys)
			So(outcome, ShouldEqual, OutcomeMissingKeys)

			outcome, _ = Validate(`{"text":1,"reason":"B"}`, rewriteKeys)
			So(outcome, ShouldEqual, OutcomeMissingKeys)
		})

		Convey("释义结果接受 nuance 或 transcription", func() {
			defineKeys := [][]string{{"definition"}, {"nuance", "transcription"}}

			outcome, _ := Validate(`{"definition":"very hungry","nuance":"informal"}`, defineKeys)
			So(outcome, ShouldEqual, OutcomeSuccess)

			outcome, _ = Validate(`{"definition":"very hungry","transcription":"/ˈfæmɪʃt/"}`, defineKeys)
			So(outcome, ShouldEqual, OutcomeSuccess)

			outcome, _ = Validate(`{"definition":"very hungry"}`, defineKeys)
			So(outcome, ShouldEqual, OutcomeMissingKeys)
		})
	})
}
