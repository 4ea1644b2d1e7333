package search

import "fmt"

// promptTemplate grounds the generative backend in retrieved context.
// The assistant persona and answer rules are in Thai to match the
// knowledge base and the expected audience.
const promptTemplate = `คุณเป็นผู้ช่วย AI ของ 9Expert Training ซึ่งเป็นศูนย์ฝึกอบรมด้าน Data Analytics, Business Intelligence และ AI

โปรดใช้ข้อมูลต่อไปนี้เป็นบริบทในการตอบคำถาม:

<context>
%s
</context>

คำถามจากผู้ใช้: %s

โปรดตอบคำถามเป็นภาษาไทย โดย:
1. ตอบตรงประเด็น ชัดเจน กระชับ
2. ใช้ข้อมูลจาก context ที่ให้มาเท่านั้น
3. ถ้าข้อมูลไม่เพียงพอ บอกได้ว่าไม่มีข้อมูลในส่วนนั้น
4. จัดรูปแบบให้อ่านง่าย ใช้ bullet points ถ้าเหมาะสม

คำตอบ:`

func buildPrompt(contextText, query string) string {
	return fmt.Sprintf(promptTemplate, contextText, query)
}
