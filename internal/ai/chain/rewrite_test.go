package chain

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	. "github.com/smartystreets/goconvey/convey"

	"gridscape/internal/ai/cascade"
	"gridscape/internal/ai/prompt"
)

// stubModel 记录收到的消息和温度
type stubModel struct {
	content     string
	messages    []*schema.Message
	temperature float32
}

func (m *stubModel) Generate(_ context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	m.messages = input
	if o := model.GetCommonOptions(nil, opts...); o.Temperature != nil {
		m.temperature = *o.Temperature
	}
	msg := schema.AssistantMessage(m.content, nil)
	msg.ResponseMeta = &schema.ResponseMeta{
		FinishReason: "stop",
		Usage:        &schema.TokenUsage{PromptTokens: 42, CompletionTokens: 7, TotalTokens: 49},
	}
	return msg, nil
}

func (m *stubModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not supported")
}

func TestRewriteChain_Run(t *testing.T) {
	Convey("RewriteChain.Run 组装提示词并执行瀑布", t, func() {
		stub := &stubModel{content: `{"text":"I am famished.","reason":"Lexical precision."}`}
		exec := cascade.NewExecutor([]cascade.Candidate{{ModelID: "m1", Model: stub}},
			cascade.WithRecorder(cascade.MultiRecorder{}))
		c := NewRewriteChain(exec, 0.7, 0.9)

		Convey("改写任务使用普通温度，并发送 system/user 两条消息", func() {
			resp, err := c.Run(context.Background(), &prompt.RewriteRequest{
				Text: "I am really hungry", Operation: prompt.OperationElevate, Level: 1,
			})
			So(err, ShouldBeNil)
			So(resp.Content, ShouldEqual, `{"text":"I am famished.","reason":"Lexical precision."}`)
			So(resp.ModelID, ShouldEqual, "m1")
			So(resp.FinishReason, ShouldEqual, "stop")
			So(resp.PromptTokens, ShouldEqual, 42)
			So(resp.OutputTokens, ShouldEqual, 7)
			So(stub.temperature, ShouldAlmostEqual, 0.7, 0.0001)

			So(len(stub.messages), ShouldEqual, 2)
			So(stub.messages[0].Role, ShouldEqual, schema.System)
			So(stub.messages[1].Role, ShouldEqual, schema.User)
			So(stub.messages[1].Content, ShouldContainSubstring, `"I am really hungry"`)
		})

		Convey("创意任务使用更高温度", func() {
			_, err := c.Run(context.Background(), &prompt.RewriteRequest{
				Text: "I am really hungry", Operation: prompt.OperationExpand, Level: 2,
			})
			So(err, ShouldBeNil)
			So(stub.temperature, ShouldAlmostEqual, 0.9, 0.0001)
		})

		Convey("释义任务要求 definition 字段", func() {
			_, err := c.Run(context.Background(), &prompt.RewriteRequest{
				Text: "famished", Operation: prompt.OperationDefine, ContextHint: "I am famished.",
			})
			So(errors.Is(err, cascade.ErrExhausted), ShouldBeTrue)
			So(errors.Is(err, cascade.ErrMalformedResponse), ShouldBeTrue)
		})

		Convey("校验失败时不调用模型", func() {
			_, err := c.Run(context.Background(), &prompt.RewriteRequest{Operation: prompt.OperationElevate})
			var verr *prompt.ValidationError
			So(errors.As(err, &verr), ShouldBeTrue)
			So(stub.messages, ShouldBeNil)
		})
	})
}
