package a2a

import (
	"encoding/json"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestNewTaskStartsSubmitted(t *testing.T) {
	Convey("Given a freshly created task", t, func() {
		task := NewTask("")

		Convey("Then it starts in the Submitted state", func() {
			So(task.Status.State, ShouldEqual, TaskStateSubmitted)
			So(task.ID, ShouldNotBeBlank)
			So(task.ContextID, ShouldNotBeBlank)
			So(task.Kind, ShouldEqual, "task")
		})
	})
}

func TestTaskTransitionRejectsIllegalEdges(t *testing.T) {
	Convey("Given a Submitted task", t, func() {
		task := NewTask("ctx-1")

		Convey("When transitioning directly to Completed", func() {
			err := task.Transition(TaskStateCompleted, nil)

			Convey("Then the transition is refused", func() {
				So(err, ShouldNotBeNil)
				So(task.Status.State, ShouldEqual, TaskStateSubmitted)
			})
		})

		Convey("When transitioning to Working then Completed", func() {
			So(task.Transition(TaskStateWorking, nil), ShouldBeNil)
			So(task.Transition(TaskStateCompleted, nil), ShouldBeNil)

			Convey("Then the task reaches Completed", func() {
				So(task.Status.State, ShouldEqual, TaskStateCompleted)
			})

			Convey("And a further transition is refused", func() {
				err := task.Transition(TaskStateWorking, nil)
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestTaskRoundTrip(t *testing.T) {
	Convey("Given a task with history and artifacts", t, func() {
		task := NewTask("ctx-2")
		So(task.Transition(TaskStateWorking, NewTextMessage(MessageRoleUser, "ping")), ShouldBeNil)
		task.AddArtifact(NewTextArtifact("reply", "Echo: ping"), false)
		So(task.Transition(TaskStateCompleted, nil), ShouldBeNil)

		Convey("When serialized and deserialized", func() {
			raw, err := json.Marshal(task)
			So(err, ShouldBeNil)

			var decoded Task
			So(json.Unmarshal(raw, &decoded), ShouldBeNil)

			Convey("Then it is semantically equal", func() {
				So(decoded.ID, ShouldEqual, task.ID)
				So(decoded.Status.State, ShouldEqual, TaskStateCompleted)
				So(len(decoded.Artifacts), ShouldEqual, 1)
				So(decoded.Artifacts[0].Parts[0].Text, ShouldEqual, "Echo: ping")
			})
		})
	})
}

func TestTaskAddArtifactAppends(t *testing.T) {
	Convey("Given a task with an existing streamed artifact", t, func() {
		task := NewTask("ctx-3")
		artifact := NewTextArtifact("reply", "hel")
		task.AddArtifact(artifact, false)

		Convey("When a chunk with the same artifact id is appended", func() {
			task.AddArtifact(Artifact{ArtifactID: artifact.ArtifactID, Parts: []Part{NewTextPart("lo")}}, true)

			Convey("Then the artifact gains the extra part rather than duplicating", func() {
				So(len(task.Artifacts), ShouldEqual, 1)
				So(len(task.Artifacts[0].Parts), ShouldEqual, 2)
			})
		})
	})
}
