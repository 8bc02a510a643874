package engine

// User-facing text. Everything the engine ever shows a student is
// Vietnamese and fixed here; raw errors never reach the chat surface.

// msgNoInformation is returned when retrieval produced no grounding.
const msgNoInformation = "Tôi không tìm thấy thông tin về vấn đề này trong cơ sở dữ liệu."

// msgQuotaExceeded is returned when the generation service reports a
// rate-limit or quota error. Distinct from the generic failure so the
// student knows retrying shortly will help.
const msgQuotaExceeded = `🚫 **Đã vượt quota API**

⏰ **Vui lòng thử lại sau 1-2 phút**

📞 **Liên hệ hỗ trợ:**
- Phòng Đào tạo: [số điện thoại]
- Website: [địa chỉ website]
- Email: [email hỗ trợ]`

// msgGenericFailurePrefix prefixes the generic failure message; a
// truncated error detail is appended.
const msgGenericFailurePrefix = "Xin lỗi, đã có lỗi xảy ra: "

// promptTemplate is the grounded-generation prompt. Placeholders:
// context block, then the verbatim question.
const promptTemplate = `Bạn là chatbot tư vấn của Trường Đại học Cần Thơ với kiến thức về quy định, chính sách và thông tin của trường.
%s

Sinh viên hỏi: %s

Hãy trả lời một cách tự nhiên. Không đề cập đến việc "dựa trên thông tin được cung cấp" hay "từ cơ sở dữ liệu". Hãy nói như thể bạn tự biết thông tin đó.

- Trả lời bằng tiếng Việt tự nhiên và thân thiện
- Nếu không có thông tin liên quan, hãy nói "Mình chưa nắm rõ thông tin này, bạn có thể liên hệ phòng đào tạo để được hỗ trợ tốt nhất"
- Trả lời ngắn gọn nhưng đầy đủ thông tin
`

// simpleAnswerTemplate wraps keyword-search context for the degraded
// path. Placeholder: the context block.
const simpleAnswerTemplate = `🤖 **Thông tin từ cơ sở dữ liệu trường:**

%s

---

📞 **Cần thêm thông tin?**
- Liên hệ phòng Đào tạo để biết chi tiết
- Kiểm tra website chính thức của trường
- Gọi hotline hỗ trợ sinh viên

💡 **Lưu ý:** Thông tin có thể thay đổi theo quy định mới, vui lòng xác nhận với phòng ban liên quan.`

// Canned fallback responses, keyed by topic, used when no part of the
// engine is available.
const fallbackTuition = `💰 **Thông tin học phí:**

📋 **Cách tính học phí:**
- Học phí đóng theo học kỳ
- Tính theo tổng số tín chỉ đăng ký
- Mức phí do Hiệu trưởng quyết định

⚠️ **Lưu ý quan trọng:**
- Đóng học phí đúng hạn để tránh hủy kết quả
- Nợ phí 2 học kỳ liên tiếp sẽ bị buộc thôi học

📞 **Liên hệ:** Phòng Đào tạo để biết mức phí chính xác cho từng ngành.`

const fallbackScholarship = `🎓 **Học bổng và hỗ trợ:**

🏆 **Các loại học bổng:**
- Học bổng khuyến khích học tập (theo kết quả học tập)
- Học bổng tài trợ (từ doanh nghiệp, tổ chức)
- Trợ cấp xã hội (dân tộc, mồ côi, tàn tật, hộ nghèo)

📋 **Điều kiện cơ bản:**
- Đăng ký tối thiểu 12 tín chỉ
- Kết quả học tập từ loại Khá trở lên
- Không có điểm F
- Không bị kỷ luật

📞 **Liên hệ:** Phòng Công tác Sinh viên`

const fallbackRegulations = `📋 **Quy định học tập:**

📊 **Thang điểm 10:**
- A+: 9.5-10 (Xuất sắc) | A: 8.5-9.4 (Giỏi)
- B+: 7.5-8.4 (Khá) | B: 6.5-7.4 (TB Khá)
- C+: 5.5-6.4 (TB) | C: 4.0-5.4 (TB Yếu)
- D: 2.0-3.9 (Yếu) | F: 0-1.9 (Kém)

🎓 **Điều kiện tốt nghiệp:**
- Hoàn thành đủ tín chỉ chương trình
- GPA tích lũy ≥ 2.0
- Không nợ môn bắt buộc

📞 **Liên hệ:** Phòng Đào tạo`

const fallbackPrograms = `📚 **Chương trình đào tạo:**

🎯 **Các bậc đào tạo:**
- Cử nhân (4 năm): 120-140 tín chỉ
- Kỹ sư (5 năm): 150-170 tín chỉ

📖 **Cấu trúc chương trình:**
- Kiến thức đại cương: 30-40%
- Kiến thức cơ sở ngành: 25-30%
- Kiến thức chuyên ngành: 25-30%
- Thực tập/Đồ án: 10-15%

📞 **Liên hệ:** Phòng Đào tạo để xem CTĐT chi tiết`

const fallbackDefault = `🤖 **Xin chào! Tôi là trợ lý AI của Trường Đại học Cần Thơ**

📌 **Tôi có thể hỗ trợ bạn về:**
• 💰 Học phí và chi phí học tập
• 🎓 Học bổng và các hình thức hỗ trợ
• 📋 Quy định và quy chế đào tạo
• 📚 Chương trình đào tạo
• 📞 Thông tin liên hệ các phòng ban

💡 **Cách sử dụng:** Hãy hỏi tôi về bất kỳ chủ đề nào bạn quan tâm!

⚠️ **Lưu ý:** Hệ thống đang trong quá trình cập nhật để phục vụ tốt hơn.`
